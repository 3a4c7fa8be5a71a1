package mail

import "fmt"

func (m *Mailer) SendLicenseKey(to, key string) error {
	plain := fmt.Sprintf(
		"Your admin license key is:\n\n%s\n\n"+
			"Use it to create the administrator account. "+
			"If you did not request this key, you can ignore this email.\n",
		key,
	)
	html := fmt.Sprintf(
		`<p>Your admin license key is:</p><p><strong>%s</strong></p>`+
			`<p>Use it to create the administrator account. `+
			`If you did not request this key, you can ignore this email.</p>`,
		key,
	)
	return m.Send(to, "Your admin license key", plain, html)
}

func (m *Mailer) SendAdminWelcome(to, firstName string) error {
	plain := fmt.Sprintf(
		"Hi %s,\n\nYour administrator account has been created. You can now sign in to the dashboard.\n",
		firstName,
	)
	html := fmt.Sprintf(
		`<p>Hi %s,</p><p>Your administrator account has been created. You can now sign in to the dashboard.</p>`,
		firstName,
	)
	return m.Send(to, "Admin account created", plain, html)
}

func (m *Mailer) SendPasswordReset(to, resetLink string) error {
	plain := fmt.Sprintf(
		"A password reset was requested for your account.\n\n"+
			"Reset link (valid for one hour):\n%s\n\n"+
			"If you did not request this, you can ignore this email.\n",
		resetLink,
	)
	html := fmt.Sprintf(
		`<p>A password reset was requested for your account.</p>`+
			`<p><a href="%s">Reset your password</a> (valid for one hour).</p>`+
			`<p>If you did not request this, you can ignore this email.</p>`,
		resetLink,
	)
	return m.Send(to, "Password reset", plain, html)
}
