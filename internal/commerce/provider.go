package commerce

import "fmt"

type Provider string

const (
	ProviderIamport  Provider = "iamport"
	ProviderToss     Provider = "toss"
	ProviderKakaoPay Provider = "kakaopay"
	ProviderNaverPay Provider = "naverpay"
	ProviderManual   Provider = "manual"
)

var allProviders = []Provider{
	ProviderIamport, ProviderToss, ProviderKakaoPay, ProviderNaverPay, ProviderManual,
}

func Providers() []Provider { return allProviders }

func ParseProvider(s string) (Provider, error) {
	for _, p := range allProviders {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown provider: %s", s)
}
