package email

import (
	"fmt"
	"html"
	"strings"
)

// OrderLine is one charged line for email rendering.
type OrderLine struct {
	Name     string
	Quantity int
	Price    float64
}

// BuildOrderConfirmationBody builds the HTML body for the order
// confirmation email.
func BuildOrderConfirmationBody(orderID string, total float64, items []OrderLine) string {
	var rows strings.Builder
	for _, item := range items {
		rows.WriteString(fmt.Sprintf(
			`<tr>
				<td style="padding: 10px; border-bottom: 1px solid #eee;">%s</td>
				<td style="padding: 10px; border-bottom: 1px solid #eee; text-align: center;">%d</td>
				<td style="padding: 10px; border-bottom: 1px solid #eee; text-align: right;">%.2f&nbsp;&euro;</td>
			</tr>`,
			html.EscapeString(item.Name),
			item.Quantity,
			item.Price,
		))
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Georgia, serif; line-height: 1.6; color: #3b2f2f; max-width: 600px; margin: 0 auto; padding: 20px;">
	<h1 style="font-size: 22px; border-bottom: 2px solid #8b5a2b; padding-bottom: 10px;">Merci pour votre commande</h1>
	<p>Votre commande a bien &eacute;t&eacute; enregistr&eacute;e. Chaque pi&egrave;ce &eacute;tant fabriqu&eacute;e &agrave; la main, un d&eacute;lai de confection peut s'appliquer.</p>
	<p style="font-family: monospace; background: #f6f1eb; padding: 10px;">Commande : %s</p>
	<table style="width: 100%%; border-collapse: collapse;">
		<thead>
			<tr>
				<th style="text-align: left; padding: 10px;">Article</th>
				<th style="text-align: center; padding: 10px;">Qt&eacute;</th>
				<th style="text-align: right; padding: 10px;">Prix</th>
			</tr>
		</thead>
		<tbody>%s</tbody>
	</table>
	<p style="text-align: right; font-size: 18px; font-weight: bold;">Total : %.2f&nbsp;&euro;</p>
</body>
</html>`, html.EscapeString(orderID), rows.String(), total)
}

// BuildLoginNoticeBody builds the admin notification sent after a
// successful login.
func BuildLoginNoticeBody(userEmail, ip string) string {
	return fmt.Sprintf(`<p>Une connexion a &eacute;t&eacute; d&eacute;tect&eacute;e pour l'utilisateur :</p>
<p><strong>Email :</strong> %s</p>
<p><strong>Adresse IP :</strong> %s</p>`,
		html.EscapeString(userEmail), html.EscapeString(ip))
}

// BuildContactBody builds the forwarded contact-form message.
func BuildContactBody(name, replyTo, message string) string {
	return fmt.Sprintf(`<p><strong>Nom :</strong> %s</p>
<p><strong>Email :</strong> %s</p>
<p><strong>Message :</strong></p>
<p>%s</p>`,
		html.EscapeString(name), html.EscapeString(replyTo), html.EscapeString(message))
}

// BuildPasswordResetBody builds the recovery-link email.
func BuildPasswordResetBody(resetURL string) string {
	return fmt.Sprintf(`<p>Vous avez demand&eacute; la r&eacute;initialisation de votre mot de passe.</p>
<p><a href="%s">Choisir un nouveau mot de passe</a></p>
<p>Si vous n'&ecirc;tes pas &agrave; l'origine de cette demande, ignorez ce message.</p>`,
		html.EscapeString(resetURL))
}
