package domain

type Device struct {
	Id           string
	Name         string
	Version      string
	Model        string
	Manufacturer string
	ViaDevice    string
}

type GenericSensor struct {
	Device            Device
	Id                string
	SensorType        string
	Name              string
	UniqueId          string
	UnitOfMeasurement string
	StateClass        string // measurement, total_increasing
	DeviceClass       string // power, energy, monetary, voltage, current, ...
	EntityCategory    string // diagnostic, config, nil
	EnabledByDefault  *bool
	Icon              string
	// HomeHash scopes availability to a home topic in addition to the bridge.
	HomeHash string
	// HasAttributes adds a json attributes topic to the discovery document.
	HasAttributes bool
	// HasLastReset maps the last_reset attribute of cumulative counters.
	HasLastReset bool
}
