package imagegen

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
)

const seedLength = 8

// Synthesizer derives a deterministic placeholder image URL from prompt text.
// The URL is content-addressed: the seed is a fixed-width prefix of the MD5
// digest of the prompt, so identical prompts always map to the same image.
// Not real rendering; stands in until an actual generation backend exists.
type Synthesizer struct {
	baseURL string
	width   int
	height  int
}

func NewSynthesizer(baseURL string) *Synthesizer {
	if baseURL == "" {
		baseURL = "https://picsum.photos"
	}
	return &Synthesizer{
		baseURL: strings.TrimRight(baseURL, "/"),
		width:   512,
		height:  512,
	}
}

// URL returns the placeholder image URL for the given prompt text.
func (s *Synthesizer) URL(prompt string) string {
	sum := md5.Sum([]byte(prompt))
	seed := hex.EncodeToString(sum[:])[:seedLength]
	return fmt.Sprintf("%s/seed/%s/%d/%d", s.baseURL, seed, s.width, s.height)
}
