package sqrly

var (
	Version   = "dev"
	GitCommit = ""
)
