package main

import (
	"context"
	"flag"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/fagongzi/log"
	"github.com/infinivision/gridcore/pkg/dashboard"
	"github.com/infinivision/gridcore/pkg/lock"
	"github.com/infinivision/gridcore/pkg/member"
	"github.com/infinivision/gridcore/pkg/meta"
	"github.com/infinivision/gridcore/pkg/metrics"
	"github.com/infinivision/gridcore/pkg/registry"
	"github.com/infinivision/gridcore/pkg/storage"
	"github.com/infinivision/gridcore/pkg/task"
	"github.com/infinivision/gridcore/pkg/util"
	"github.com/infinivision/gridcore/pkg/xa"
)

var (
	nodeID        = flag.Uint("id", 1, "Node ID")
	addr          = flag.String("addr", "127.0.0.1:5701", "Addr: client protocol address of the first member")
	addrAdmin     = flag.String("addr-admin", "", "Addr: admin dashboard address")
	addrPPROF     = flag.String("addr-pprof", "", "Addr: pprof addr")
	members       = flag.String("members", "", "Addrs: comma separated addresses of the other members in this process")
	partitions    = flag.Int("partitions", int(member.DefaultPartitions), "Count: partitions")
	cpu           = flag.Int("cpu", 0, "Limit: schedule threads count")
	reactorLoops  = flag.Int("reactor-loops", 0, "Count: io loops per member, 0 means cpu count")
	opWorkers     = flag.Uint64("op-workers", 0, "Count: partition workers per member, 0 means cpu count")
	taskExecutors = flag.Int("task-executors", 16, "Count: task executors per member")
	fanoutTimeout = flag.Int("fanout-timeout", 30, "Limit(sec): all partitions request timeout")
	xaTimeout     = flag.Int("xa-timeout", 120, "Limit(sec): default transaction timeout")
	xaStorage     = flag.String("xa-storage", "mem://", "Addr: prepared branch storage with protocol, mem://, cell://, redis:// or badger:///path")
	xaOnePhase    = flag.Bool("xa-one-phase", true, "Enable: one phase commit without prepare")
	xaLock        = flag.String("xa-lock", "mem://", "Addr: transactional key lock with protocol, mem://, cell:// or redis://")

	registryAddr = flag.String("registry-addr", "", "Addr: registry center with protocol, etcd:// or consul://")

	// metrics
	prometheusJob             = flag.String("metric-job", "gridcore", "Prometheus job name")
	prometheusPushgateway     = flag.String("metric-push-addr", "", "Prometheus pushgateway address")
	prometheusPushIntervalSec = flag.Int("metric-push-interval", 0, "Prometheus metrics push interval in seconds")

	version = flag.Bool("version", false, "Show version info")
)

func main() {
	flag.Parse()
	if *version && util.PrintVersion() {
		os.Exit(0)
	}

	log.InitLog()

	if *cpu == 0 {
		runtime.GOMAXPROCS(runtime.NumCPU())
	} else {
		runtime.GOMAXPROCS(*cpu)
	}

	if *addrPPROF != "" {
		go func() {
			log.Errorf("start pprof failed, errors:\n%+v",
				http.ListenAndServe(*addrPPROF, nil))
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	go metrics.Push(ctx, &metrics.MetricConfig{
		PushJob:      *prometheusJob,
		PushAddress:  *prometheusPushgateway,
		PushInterval: time.Second * time.Duration(*prometheusPushIntervalSec),
	})

	addrs := parseAddrs()
	c, err := member.NewCluster(addrs, parseOptions()...)
	if err != nil {
		log.Fatalf("create cluster failed with %+v", err)
	}

	err = c.Start()
	if err != nil {
		log.Fatalf("start cluster failed with %+v", err)
	}

	var d *dashboard.Dashboard
	if *addrAdmin != "" {
		d = dashboard.NewDashboard(dashboard.Cfg{Addr: *addrAdmin}, c)
		go func() {
			err := d.Start()
			if err != nil && err != http.ErrServerClosed {
				log.Fatalf("start dashboard failed with %+v", err)
			}
		}()
	}

	reg, infos := register(addrs)
	waitStop(func() {
		for _, info := range infos {
			if err := reg.Deregister(info); err != nil {
				log.Errorf("deregister %s failed with %+v", info.ID, err)
			}
		}

		if d != nil {
			d.Stop()
		}
		c.Stop()
		cancel()
	})
}

func parseAddrs() []string {
	addrs := []string{*addr}
	for _, value := range strings.Split(*members, ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			addrs = append(addrs, value)
		}
	}
	return addrs
}

func parseOptions() []member.Option {
	store, err := storage.CreateStorage(*xaStorage)
	if err != nil {
		log.Fatalf("init xa storage failed with %+v", err)
	}

	locker, err := lock.CreateResourceLock(*xaLock)
	if err != nil {
		log.Fatalf("init xa lock failed with %+v", err)
	}

	var opts []member.Option
	opts = append(opts, member.WithNodeID(uint16(*nodeID)))
	opts = append(opts, member.WithPartitions(int32(*partitions)))
	opts = append(opts, member.WithReactorLoops(*reactorLoops))
	opts = append(opts, member.WithOperationWorkers(*opWorkers))
	opts = append(opts, member.WithTaskOptions(
		task.WithExecutors(*taskExecutors),
		task.WithFanoutTimeout(time.Second*time.Duration(*fanoutTimeout))))
	opts = append(opts, member.WithXAOptions(
		xa.WithStorage(store),
		xa.WithLocker(locker),
		xa.WithOnePhaseCommit(*xaOnePhase),
		xa.WithDefaultTimeout(time.Second*time.Duration(*xaTimeout))))
	return opts
}

func register(addrs []string) (registry.Registry, []meta.MemberInfo) {
	if *registryAddr == "" {
		return nil, nil
	}

	reg, err := registry.NewRegistry(*registryAddr)
	if err != nil {
		log.Fatalf("create registry failed with %+v", err)
	}

	var infos []meta.MemberInfo
	for _, value := range addrs {
		info := meta.MemberInfo{
			ID:        value,
			Addr:      value,
			AdminAddr: *addrAdmin,
		}
		err = reg.Register(info)
		if err != nil {
			log.Fatalf("register %s failed with %+v", value, err)
		}
		infos = append(infos, info)
	}

	return reg, infos
}

func waitStop(stop func()) {
	sc := make(chan os.Signal, 1)
	signal.Notify(sc,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT)

	sig := <-sc
	stop()
	log.Infof("exit: signal=<%d>.", sig)
	switch sig {
	case syscall.SIGTERM:
		log.Infof("exit: bye :-).")
		os.Exit(0)
	default:
		log.Infof("exit: bye :-(.")
		os.Exit(1)
	}
}
