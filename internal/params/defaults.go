package params

// Defaults are the values re-established at construction. They mirror the
// dashboard defaults on the robot plus the sequencing thresholds that later
// revisions exposed as tunables.
type Defaults struct {
	MotorSpeed        float64 `yaml:"motor_speed"`
	FeedSpeed         float64 `yaml:"feed_speed"`
	SpinUpTime        float64 `yaml:"spin_up_time"`
	FeedTime          float64 `yaml:"feed_time"`
	VelocityTolerance float64 `yaml:"velocity_tolerance"`
}

// Install seeds every key that is not already present.
func (d Defaults) Install(s *Store) {
	s.SetDefault(MotorSpeed, d.MotorSpeed)
	s.SetDefault(FeedSpeed, d.FeedSpeed)
	s.SetDefault(SpinUpTime, d.SpinUpTime)
	s.SetDefault(FeedTime, d.FeedTime)
	s.SetDefault(VelocityTolerance, d.VelocityTolerance)
	s.SetDefaultString(Status, "")
	s.SetDefault(Velocity, 0)
	s.SetDefault(Setpoint, 0)
}

// Shot is one tick's view of the live shot parameters.
type Shot struct {
	MotorSpeed        float64
	FeedSpeed         float64
	SpinUpTime        float64
	FeedTime          float64
	VelocityTolerance float64
}

// ReadShot samples every shot parameter from the store, falling back to d
// for anything missing.
func (d Defaults) ReadShot(s *Store) Shot {
	return Shot{
		MotorSpeed:        s.Get(MotorSpeed, d.MotorSpeed),
		FeedSpeed:         s.Get(FeedSpeed, d.FeedSpeed),
		SpinUpTime:        s.Get(SpinUpTime, d.SpinUpTime),
		FeedTime:          s.Get(FeedTime, d.FeedTime),
		VelocityTolerance: s.Get(VelocityTolerance, d.VelocityTolerance),
	}
}
