package bot_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/imagegenie/whatsapp-bot/internal/bot"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		intent bot.Intent
		prompt string
	}{
		{"slash start", "/start", bot.IntentStart, ""},
		{"start with noise whitespace and case", "  /START  ", bot.IntentStart, ""},
		{"french greeting", "bonjour", bot.IntentStart, ""},
		{"hello", "hello", bot.IntentStart, ""},
		{"image command", "/image a cat", bot.IntentGenerate, "a cat"},
		{"image without slash", "image a cat", bot.IntentGenerate, "a cat"},
		{"image uppercase", "/IMAGE Un Chat", bot.IntentGenerate, "un chat"},
		{"short prompt still classifies", "/image ab", bot.IntentGenerate, "ab"},
		{"solde", "/solde", bot.IntentBalance, ""},
		{"balance word", "balance", bot.IntentBalance, ""},
		{"aide", "aide", bot.IntentHelp, ""},
		{"help slash", "/help", bot.IntentHelp, ""},
		{"prix", "/prix", bot.IntentPricing, ""},
		{"tarif", "tarif", bot.IntentPricing, ""},
		{"recharge", "/recharge", bot.IntentRecharge, ""},
		{"acheter", "/acheter", bot.IntentRecharge, ""},
		{"unknown word", "banana", bot.IntentUnknown, ""},
		{"empty", "", bot.IntentUnknown, ""},
		{"image with no space is unknown", "/imagecat", bot.IntentUnknown, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent, prompt := bot.Classify(tt.input)
			assert.Equal(t, tt.intent, intent)
			assert.Equal(t, tt.prompt, prompt)
		})
	}
}

// The command prefix is stripped exactly once from the front of the message.
// The word "image" inside the prompt body is prompt text, not command syntax.
func TestClassifyStripsPrefixOnce(t *testing.T) {
	intent, prompt := bot.Classify("/image image of image cats")
	assert.Equal(t, bot.IntentGenerate, intent)
	assert.Equal(t, "image of image cats", prompt)
}
