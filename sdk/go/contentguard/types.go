package contentguard

import (
	"fmt"

	"github.com/ppiankov/contentguard/internal/classify"
	"github.com/ppiankov/contentguard/internal/gate"
	"github.com/ppiankov/contentguard/internal/model"
)

// Level is a protection level.
type Level = model.ProtectionLevel

const (
	LevelOff    = model.LevelOff
	LevelLight  = model.LevelLight
	LevelStrong = model.LevelStrong
	LevelStrict = model.LevelStrict
)

// Result is a classification verdict.
type Result = classify.Result

// Settings is the persisted protection state.
type Settings = model.Settings

// BlockedAttempt is one entry of the block history.
type BlockedAttempt = model.BlockedAttempt

// PIN errors returned by SetLevel and the other guarded setters.
var (
	ErrPinRequired  = gate.ErrPinRequired
	ErrIncorrectPin = gate.ErrIncorrectPin
	ErrInvalidPin   = gate.ErrInvalidPin
)

// BlockedError is returned by Guard and GuardText when content is blocked.
type BlockedError struct {
	Target string
	Result Result
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("contentguard blocked (%s): %s", e.Result.Stage, e.Result.Reason)
}
