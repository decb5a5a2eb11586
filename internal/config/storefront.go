package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

// ClientLinks holds download URLs for the VPN client per platform.
type ClientLinks struct {
	Android string `yaml:"android"`
	Windows string `yaml:"windows"`
	MacOS   string `yaml:"macos"`
}

// Support holds the contacts shown by the support button.
type Support struct {
	Email    string `yaml:"email"`
	Telegram string `yaml:"telegram"`
}

// Payment holds the manual bank transfer details sent with every new order.
type Payment struct {
	CardNumber string `yaml:"card_number"`
	BankName   string `yaml:"bank_name"`
}

// Storefront is the static, read-only content served by the bot.
type Storefront struct {
	Clients ClientLinks `yaml:"clients"`
	Support Support     `yaml:"support"`
	Payment Payment     `yaml:"payment"`
}

// DefaultStorefront returns the built-in storefront content.
func DefaultStorefront() Storefront {
	return Storefront{
		Clients: ClientLinks{
			Android: "https://apps.irancdn.org/android/connectix-2.3.3-v8a.apk",
			Windows: "https://apps.irancdn.org/windows/Connectix-2.3.2.zip",
			MacOS:   "https://apps.irancdn.org/mac/Connectix-2.3.2.zip",
		},
		Support: Support{
			Email:    "bodapoor5@gmail.com",
			Telegram: "@firstgnome",
		},
		Payment: Payment{
			CardNumber: "5859831207627083",
			BankName:   "تجارت بانک",
		},
	}
}

// LoadStorefront reads YAML overrides from path on top of DefaultStorefront.
// An empty path yields the defaults. Fields missing from the file keep their
// default values.
func LoadStorefront(path string) (Storefront, error) {
	storefront := DefaultStorefront()
	if path == "" {
		return storefront, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Storefront{}, fmt.Errorf("read storefront file: %w", err)
	}

	var overrides Storefront
	if err := yaml.UnmarshalStrict(raw, &overrides); err != nil {
		return Storefront{}, fmt.Errorf("parse storefront file: %w", err)
	}

	storefront.Clients.Android = override(storefront.Clients.Android, overrides.Clients.Android)
	storefront.Clients.Windows = override(storefront.Clients.Windows, overrides.Clients.Windows)
	storefront.Clients.MacOS = override(storefront.Clients.MacOS, overrides.Clients.MacOS)
	storefront.Support.Email = override(storefront.Support.Email, overrides.Support.Email)
	storefront.Support.Telegram = override(storefront.Support.Telegram, overrides.Support.Telegram)
	storefront.Payment.CardNumber = override(storefront.Payment.CardNumber, overrides.Payment.CardNumber)
	storefront.Payment.BankName = override(storefront.Payment.BankName, overrides.Payment.BankName)

	return storefront, nil
}

func override(current, candidate string) string {
	if trimmed := strings.TrimSpace(candidate); trimmed != "" {
		return trimmed
	}
	return current
}
