package cfg

type Cfg struct {
	// Storage
	DBPath string

	// Application configuration
	FeedsDir          string
	Port              string
	BaseUrl           string
	WorkerCount       int
	SchedulerInterval int
	APIAccessKey      string
	CacheTTL          int // seconds a rendered feed stays cached

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
