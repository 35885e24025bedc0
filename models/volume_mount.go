package models

const DefaultVolumeMode = "rw"

type VolumeBinding struct {
	// Path inside the container
	Bind string `json:"bind" mapstructure:"bind"`

	// rw | ro (or any other mode the runtime accepts)
	Mode string `json:"mode" mapstructure:"mode"`
}
