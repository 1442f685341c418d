// Package contentguard provides in-process content protection for Go host
// applications. It classifies URLs and free text against a tiered denylist,
// records blocked attempts, notifies an accountability partner and gates
// protection downgrades behind a PIN.
//
// Usage:
//
//	cg, err := contentguard.New(contentguard.WithDir("/var/lib/myapp"))
//	if err := cg.Guard(ctx, "https://example.com/page"); err != nil {
//	    var blocked *contentguard.BlockedError
//	    if errors.As(err, &blocked) {
//	        // show a block page
//	    }
//	}
//
// The SDK links directly against internal packages for zero-subprocess
// overhead. External users import github.com/ppiankov/contentguard/sdk/go/contentguard.
package contentguard
