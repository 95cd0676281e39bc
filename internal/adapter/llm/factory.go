package llm

import (
	"log"
	"strings"
	"time"
)

// ModeMock selects the offline provider.
const ModeMock = "MOCK"

// NewProvider returns a MockClient when mode is MOCK, otherwise a real Client.
func NewProvider(mode, baseURL, apiKey string, timeout time.Duration) Provider {
	if strings.EqualFold(mode, ModeMock) {
		log.Println("RELAY_MODE=MOCK detected, using mock completion provider")
		return NewMockClient()
	}
	if apiKey == "" {
		log.Printf("WARN: GROQ_API_KEY is empty, upstream requests will be unauthenticated")
	}
	return NewClient(baseURL, apiKey, timeout)
}
