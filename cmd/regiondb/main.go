package main

import (
	"fmt"
	"log"
	"os"

	"github.com/bietkhonhungvandi212/region-db/internal/config"
	"github.com/bietkhonhungvandi212/region-db/internal/storage/region"
	util "github.com/bietkhonhungvandi212/region-db/internal/utils"
)

func main() {
	cfg := demoConfig()

	if len(os.Args) > 1 {
		loaded, err := config.Load(os.Args[1])
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		cfg = loaded
	}

	reg, err := region.Activate(cfg, region.Options{})
	if err != nil {
		log.Fatalf("activate registry: %v", err)
	}
	defer reg.Deactivate()

	hot, err := reg.Lookup("hot")
	if err != nil {
		log.Fatalf("lookup region: %v", err)
	}

	// Allocate past the watermark so the admission loop starts evicting.
	capacity := hot.Config().MaxSize / int64(reg.PageSize())
	for i := int64(0); i < capacity+capacity/2; i++ {
		if _, err := hot.AllocateDataPage(); err != nil {
			log.Fatalf("allocate page: %v", err)
		}
	}

	for _, snap := range reg.MetricsSnapshots() {
		fmt.Printf("region %-10s allocated=%-6d rate=%8.1f/s fill=%.2f\n",
			snap.Name, snap.TotalAllocatedPages, snap.AllocationRate, snap.PagesFillFactor)
	}
	reg.DumpStatistics()
}

func demoConfig() *config.MemoryConfig {
	cfg := config.Default()

	hot := config.NewRegionConfig("hot")
	hot.InitialSize = 10 * util.MiB
	hot.MaxSize = 10 * util.MiB
	hot.EvictionMode = config.EvictionRandomLRU
	hot.EvictionThreshold = 0.9
	hot.EmptyPagesPoolSize = 50
	hot.MetricsEnabled = true

	cfg.Regions = append(cfg.Regions, hot)
	return cfg
}
