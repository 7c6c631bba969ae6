package model

// Label is a user-facing model name shown in the model picker.
type Label string

const (
	FluxPro     Label = "FLUX.1-pro"
	FluxSchnell Label = "FLUX.1-schnell"
	Flux11Pro   Label = "FLUX1.1-pro"
)

const Default = FluxSchnell

// Labels returns the known labels in display order.
func Labels() []Label {
	return []Label{FluxPro, FluxSchnell, Flux11Pro}
}

// ID returns the backend model identifier. Unknown labels are returned unchanged.
func (l Label) ID() string {
	switch l {
	case FluxPro:
		return "black-forest-labs/FLUX.1-pro"
	case FluxSchnell:
		return "black-forest-labs/FLUX.1-schnell"
	case Flux11Pro:
		return "black-forest-labs/FLUX.1.1-pro"
	default:
		return string(l)
	}
}

func (l Label) Known() bool {
	return l.ID() != string(l)
}

func Resolve(label string) string {
	return Label(label).ID()
}
