package util

// Configuration is filled from command line flags and environment by the
// binary and handed to the runner.
type Configuration struct {
	Version   string
	BuildDate string
	Commit    string

	ExercisePath string
	TraceDSN     string
	RunID        string
	HistoryPath  string
	Benchmark    bool
	// DebugAST is "json", "text" or empty.
	DebugAST      string
	MaxIterations int
}
