package cfg

type Cfg struct {
	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Redis configuration
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Index pool configuration
	IndexBaseURL         string
	IndexDir             string
	IndexRefreshInterval int
	IndexBuckets         []string

	// Application configuration
	Port          string
	WorkerCount   int
	ParamsFile    string
	SourceTimeout int

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
