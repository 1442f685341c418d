package classify

import (
	"fmt"
	"testing"

	"github.com/ppiankov/contentguard/internal/model"
)

func BenchmarkCheckURL_NoMatch(b *testing.B) {
	c := New(nil)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.CheckURL("https://api.example.org/v1/users", model.LevelStrict, nil, true)
	}
}

func BenchmarkCheckURL_Match(b *testing.B) {
	c := New(nil)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.CheckURL("https://www.pornhub.com/video/1", model.LevelLight, nil, false)
	}
}

func BenchmarkCheckURL_Fallback(b *testing.B) {
	c := New(nil)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.CheckURL("not a url at all", model.LevelStrict, nil, true)
	}
}

func BenchmarkCheckURL_LargeCustomList(b *testing.B) {
	c := New(nil)
	custom := make([]string, 0, 1000)
	for i := 0; i < 1000; i++ {
		custom = append(custom, fmt.Sprintf("blocked-%d.example.com", i))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.CheckURL("https://safe.example.org/api", model.LevelStrict, custom, false)
	}
}

func BenchmarkCheckKeywords(b *testing.B) {
	c := New(nil)
	text := "a reasonably long note about the weekend plans and nothing else of interest"
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.CheckKeywords(text, model.LevelStrict, []string{"secret"}, true)
	}
}
