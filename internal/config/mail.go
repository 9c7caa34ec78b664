package config

// MailConfig holds SMTP settings for confirmation mails.  When Enabled is
// false mails are rendered and logged but not delivered.
type MailConfig struct {
    Enabled  bool
    Host     string
    Port     int
    Username string
    Password string
    From     string
    Festival string // festival name used in subject and body
}

// LoadMailConfig reads MAIL_* variables.
func LoadMailConfig() MailConfig {
    return MailConfig{
        Enabled:  envBool("MAIL_ENABLED", false),
        Host:     envStr("MAIL_HOST", "localhost"),
        Port:     envInt("MAIL_PORT", 587),
        Username: envStr("MAIL_USERNAME", ""),
        Password: envStr("MAIL_PASSWORD", ""),
        From:     envStr("MAIL_FROM", "tickets@iftf.be"),
        Festival: envStr("MAIL_FESTIVAL_NAME", "IFTF"),
    }
}
