package bot

import "strings"

// Intent is the classified meaning of a normalized inbound message. Every
// message is classified independently; no session state survives between
// messages.
type Intent string

const (
	IntentStart    Intent = "start"
	IntentGenerate Intent = "generate"
	IntentBalance  Intent = "balance"
	IntentHelp     Intent = "help"
	IntentPricing  Intent = "pricing"
	IntentRecharge Intent = "recharge"
	IntentUnknown  Intent = "unknown"
)

var (
	startWords    = []string{"/start", "start", "salut", "hello", "bonjour", "bonsoir"}
	balanceWords  = []string{"/solde", "solde", "/balance", "balance"}
	helpWords     = []string{"/aide", "aide", "/help", "help"}
	pricingWords  = []string{"/prix", "prix", "/price", "price", "/tarif", "tarif"}
	rechargeWords = []string{"/recharge", "recharge", "/buy", "buy", "/acheter"}

	generatePrefixes = []string{"/image ", "image "}
)

// Classify normalizes the raw text (trim + lower-case) and matches it against
// the fixed intent table, first match wins. For the generate intent the
// command prefix is stripped exactly once from the front; the literal may
// legitimately reappear inside the prompt body.
func Classify(raw string) (Intent, string) {
	text := strings.ToLower(strings.TrimSpace(raw))

	if contains(startWords, text) {
		return IntentStart, ""
	}
	for _, prefix := range generatePrefixes {
		if strings.HasPrefix(text, prefix) {
			prompt := strings.TrimSpace(strings.TrimPrefix(text, prefix))
			return IntentGenerate, prompt
		}
	}
	if contains(balanceWords, text) {
		return IntentBalance, ""
	}
	if contains(helpWords, text) {
		return IntentHelp, ""
	}
	if contains(pricingWords, text) {
		return IntentPricing, ""
	}
	if contains(rechargeWords, text) {
		return IntentRecharge, ""
	}
	return IntentUnknown, ""
}

func contains(words []string, text string) bool {
	for _, w := range words {
		if w == text {
			return true
		}
	}
	return false
}
