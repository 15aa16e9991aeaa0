package response

import (
	"github.com/marcos-nsantos/bg-remover/internal/usecase/removal"
)

type CapabilityResponse struct {
	Available bool     `json:"available"`
	Engine    string   `json:"engine,omitempty"`
	Formats   []string `json:"formats"`
	Accepts   []string `json:"accepts"`
}

func CapabilityToResponse(c removal.Capability) CapabilityResponse {
	return CapabilityResponse{
		Available: c.Available,
		Engine:    c.Engine,
		Formats:   []string{"PNG", "JPG"},
		Accepts:   []string{"jpg", "jpeg", "png"},
	}
}
