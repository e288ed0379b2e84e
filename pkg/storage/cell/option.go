package cell

// Option option funcation
type Option func(*options)

type options struct {
	maxRetryTimes int
	isCell        bool
	cluster       string
	scanBatch     int
}

func (opts *options) adjust() {
	if opts.cluster == "" {
		opts.cluster = "default"
	}

	if opts.scanBatch <= 0 {
		opts.scanBatch = 256
	}
}

// WithRetry set max retry times
func WithRetry(value int) Option {
	return func(opts *options) {
		opts.maxRetryTimes = value
	}
}

// WithElasticell set is the storage is elasticell or redis.
// The elasticell expanded the 'HSCANGET' command to load a hash by range.
func WithElasticell(value bool) Option {
	return func(opts *options) {
		opts.isCell = value
	}
}

// WithCluster set the cluster name, the records of different clusters are
// kept in different hashes
func WithCluster(value string) Option {
	return func(opts *options) {
		opts.cluster = value
	}
}

// WithScanBatch set the batch size of the range load
func WithScanBatch(value int) Option {
	return func(opts *options) {
		opts.scanBatch = value
	}
}
