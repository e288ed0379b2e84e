package main

import (
	"context"
	"flag"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/fagongzi/log"
	"github.com/infinivision/gridcore/pkg/client"
)

var (
	addr        = flag.String("addr", "127.0.0.1:5701", "Addr: member address")
	concurrency = flag.Int("c", 10, "Count: concurrent clients")
	keys        = flag.Int("keys", 1000, "Count: keys per client")
	mapName     = flag.String("map", "bench", "Name: map name")
	timeout     = flag.Int("timeout", 15, "Limit(sec): request timeout")
)

func main() {
	flag.Parse()
	log.InitLog()

	var ops uint64
	for i := 0; i < *concurrency; i++ {
		go func(idx int) {
			name := fmt.Sprintf("c-%d", idx)
			c, err := client.NewClient(context.Background(), client.Cfg{
				Addr:    *addr,
				Timeout: time.Second * time.Duration(*timeout),
			})
			if err != nil {
				log.Fatalf("[%s] connect failed with %+v", name, err)
			}

			ctx := context.Background()
			for {
				for j := 0; j < *keys; j++ {
					key := fmt.Sprintf("%s-%d", name, j)
					_, err := c.MapPut(ctx, *mapName, key, int64(j))
					if err != nil {
						log.Fatalf("[%s] put %s failed with %+v", name, key, err)
					}

					value, err := c.MapGet(ctx, *mapName, key)
					if err != nil {
						log.Fatalf("[%s] get %s failed with %+v", name, key, err)
					}
					if value != int64(j) {
						log.Fatalf("[%s] get %s returns %+v, expect %d", name, key, value, j)
					}
					atomic.AddUint64(&ops, 2)
				}

				size, err := c.MapSize(ctx, *mapName)
				if err != nil {
					log.Fatalf("[%s] size failed with %+v", name, err)
				}
				atomic.AddUint64(&ops, 1)
				log.Infof("[%s] round complete, map size %d", name, size)
			}
		}(i)
	}

	ticker := time.NewTicker(time.Second * 5)
	defer ticker.Stop()
	var last uint64
	for range ticker.C {
		current := atomic.LoadUint64(&ops)
		log.Infof("%d ops/s", (current-last)/5)
		last = current
	}
}
