package security

// Actor identifies who requested a change to the system.
type Actor struct {
	// Hostname is the machine name where the request originated.
	Hostname string
	// Username is the system user who issued the request.
	Username string
}

// String renders the actor as username@hostname.
func (a *Actor) String() string {
	if a == nil {
		return "<unknown>"
	}

	return a.Username + "@" + a.Hostname
}

// Clone returns a deep copy of the actor.
func (a *Actor) Clone() *Actor {
	if a == nil {
		return nil
	}

	cloned := *a

	return &cloned
}

// Snapshot is the observable system state at a point in time.
type Snapshot struct {
	// ArmingStatus is the current arming mode.
	ArmingStatus ArmingStatus
	// AlarmStatus is the current alarm level.
	AlarmStatus AlarmStatus
	// CatDetected is the result of the most recent camera frame.
	CatDetected bool
	// Sensors are all known sensors, sorted by name.
	Sensors []*Sensor
}

// Clone returns a copy of the snapshot to avoid leaking internal references.
func (s *Snapshot) Clone() *Snapshot {
	return &Snapshot{
		ArmingStatus: s.ArmingStatus,
		AlarmStatus:  s.AlarmStatus,
		CatDetected:  s.CatDetected,
		Sensors:      CloneSensors(s.Sensors),
	}
}

// ActiveSensors returns the sensors whose active flag is set.
func (s *Snapshot) ActiveSensors() []*Sensor {
	var active []*Sensor

	for _, sensor := range s.Sensors {
		if sensor.Active {
			active = append(active, sensor)
		}
	}

	return active
}
