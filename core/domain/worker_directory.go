package domain

// ContactDirectory is the static owner configuration loaded at start-up.
type ContactDirectory struct {
	// Owners maps short owner codes to gateway addresses.
	Owners map[string]string `yaml:"owners" json:"owners"`
	// AlwaysNotify lists owner codes that receive every alert.
	AlwaysNotify []string `yaml:"always_notify" json:"always_notify"`
	// Aliases maps legacy owner codes to their current code.
	Aliases map[string]string `yaml:"aliases" json:"aliases"`
	// DefaultRecipient is used when a record resolves to nobody.
	DefaultRecipient string `yaml:"default_recipient" json:"default_recipient,omitempty"`
}

// DefaultContactDirectory returns the directory shipped with the service.
func DefaultContactDirectory() ContactDirectory {
	return ContactDirectory{
		Owners: map[string]string{
			"thongnv31": "whatsapp:+84333629091",
			"ductn8":    "whatsapp:+84335371306",
			"khanhnd23": "whatsapp:+84383522722",
			"vinhtq18":  "whatsapp:+84968468868",
			"haipn":     "whatsapp:+84962422102",
			"dungnt":    "whatsapp:+84847764566",
		},
		AlwaysNotify: []string{"thongnv31", "haipn", "dungnt"},
		Aliases: map[string]string{
			"ductn": "ductn8",
		},
	}
}
