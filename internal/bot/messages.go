package bot

import "fmt"

// User-facing reply texts. WhatsApp renders *bold* and _italic_ markers.

const msgWelcome = `🎨 *Bienvenue sur ImageGenie Bot!*

Je transforme vos idées en images avec l'IA! ✨

🎁 *Vous avez 1 token GRATUIT pour commencer!*

*Comment ça marche:*
Tapez: /image [votre description]

*Exemple:*
/image un logo moderne pour restaurant africain

*Commandes disponibles:*
/image - Générer une image
/solde - Voir vos tokens
/aide - Obtenir de l'aide
/prix - Voir les tarifs`

const msgHelp = `📖 *Guide d'utilisation*

*Générer une image:*
/image [description]

*Exemples:*
• /image un coucher de soleil sur la plage
• /image logo moderne pour boutique

*Autres commandes:*
• /solde - Voir vos tokens
• /prix - Voir les tarifs
• /recharge - Acheter des tokens`

const msgPricing = `💳 *Nos Tarifs*

📦 *Pack Découverte*
500 FCFA = 5 tokens

📦 *Pack Standard*
1000 FCFA = 12 tokens

📦 *Pack Pro*
2500 FCFA = 35 tokens

Pour commander: /recharge`

const msgRecharge = `💳 *Recharge de Tokens*

*Étape 1:* Choisissez votre pack
• 500 F = 5 tokens
• 1000 F = 12 tokens
• 2500 F = 35 tokens

*Étape 2:* Envoyez à
• MTN: 97 XX XX XX
• Moov: 95 XX XX XX

*Étape 3:* Envoyez le reçu ici`

const msgUnknown = `❓ Je n'ai pas compris.

Tapez /aide pour voir les commandes`

const msgPromptTooShort = "❌ Description trop courte. Exemple: /image un chat sur la lune"

const msgGenerating = "🎨 Génération en cours... (15 secondes)"

const msgInsufficientTokens = "❌ Crédit insuffisant! Vous avez 0 token.\n\n💡 Tapez /recharge pour acheter des tokens"

const msgGenerationFailed = "❌ La génération a échoué, réessayez dans un instant."

const msgTokensExhausted = "⚠️ Vous n'avez plus de tokens!\n\nTapez /recharge pour continuer"

func balanceMessage(tokens, totalGenerated int) string {
	status := "❌ Crédit épuisé"
	if tokens > 0 {
		status = fmt.Sprintf("✅ Vous pouvez générer %d image(s)", tokens)
	}
	return fmt.Sprintf(`💰 *Votre solde*

Tokens disponibles: %d
Images générées: %d

%s

Tapez /recharge pour acheter des tokens`, tokens, totalGenerated, status)
}

func imageCaption(prompt string, tokensLeft int) string {
	return fmt.Sprintf("✨ *Image générée avec succès!*\n\n📝 _Prompt: %s_\n💰 Tokens restants: %d", prompt, tokensLeft)
}
