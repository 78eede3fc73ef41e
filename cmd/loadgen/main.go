package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"runtime/pprof"
	"time"

	"github.com/sirupsen/logrus"

	"bazaar/market"
)

func main() {
	totalSubmissions := flag.Int("submissions", 500000, "number of bids and offers to submit")
	items := flag.Int64("items", 16, "number of distinct items")
	users := flag.Int("users", 64, "number of distinct users")
	basePrice := flag.Int64("base-price", 10000, "price level randomization is centered on")
	priceRange := flag.Int64("price-range", 100, "maximum distance from the base price")
	maxQty := flag.Int64("max-qty", 5, "maximum quantity per submission")
	orderBuffer := flag.Int("order-buffer", 2048, "executed-order stream buffer")
	workers := flag.Int("workers", 1, "concurrent submitter goroutines")
	seed := flag.Int64("seed", time.Now().UnixNano(), "seed for deterministic random streams")
	cpuProfile := flag.String("cpuprofile", "", "write cpu profile to file")
	memProfile := flag.String("memprofile", "", "write heap profile to file")
	flag.Parse()

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			panic(err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			panic(err)
		}
		defer pprof.StopCPUProfile()
	}

	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)
	mkt := market.New(market.Config{Logger: log, OrderBuffer: *orderBuffer})

	stop := make(chan struct{})
	go func() {
		// Keep the stream drained so publishes are not dropped for lack
		// of a consumer; the final tally comes from the store.
		for {
			select {
			case <-mkt.Orders():
			case <-stop:
				return
			}
		}
	}()

	submitted := *totalSubmissions
	start := time.Now()
	if *workers <= 1 {
		rng := rand.New(rand.NewSource(*seed))
		submitRange(mkt, rng, 0, *totalSubmissions, *items, *users, *basePrice, *priceRange, *maxQty)
	} else {
		done := make(chan struct{})
		per := *totalSubmissions / *workers
		submitted = per * *workers
		for w := 0; w < *workers; w++ {
			go func(w int) {
				rng := rand.New(rand.NewSource(*seed + int64(w)))
				submitRange(mkt, rng, w*per, per, *items, *users, *basePrice, *priceRange, *maxQty)
				done <- struct{}{}
			}(w)
		}
		for w := 0; w < *workers; w++ {
			<-done
		}
	}
	elapsed := time.Since(start)
	close(stop)

	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err == nil {
			defer f.Close()
			_ = pprof.WriteHeapProfile(f)
		}
	}

	var matched int
	for u := 0; u < *users; u++ {
		matched += len(mkt.OrdersForBuyer(userID(u)))
	}

	submissionsPerSec := float64(submitted) / elapsed.Seconds()
	ordersPerSec := float64(matched) / elapsed.Seconds()

	fmt.Printf("submitted %d bids/offers in %s (%.0f submissions/s)\n", submitted, elapsed.Truncate(time.Millisecond), submissionsPerSec)
	fmt.Printf("placed %d orders (%.0f orders/s)\n", matched, ordersPerSec)
	fmt.Printf("config: items=%d users=%d workers=%d base-price=%d range=%d\n", *items, *users, *workers, *basePrice, *priceRange)
}

func submitRange(mkt *market.Marketplace, rng *rand.Rand, offset, count int, items int64, users int, basePrice, priceRange, maxQty int64) {
	for i := 0; i < count; i++ {
		item := rng.Int63n(items) + 1
		user := userID(rng.Intn(users))
		qty := rng.Int63n(maxQty) + 1

		var err error
		if rng.Intn(2) == 0 {
			price := basePrice + rng.Int63n(priceRange)
			err = mkt.AddBid(market.NewBid(item, qty, price, user))
		} else {
			price := basePrice - rng.Int63n(priceRange)
			if price <= 0 {
				price = 1
			}
			err = mkt.AddOffer(market.NewOffer(item, qty, price, user))
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "submission %d failed: %v\n", offset+i, err)
		}
	}
}

func userID(n int) string {
	return fmt.Sprintf("lg-user-%d", n)
}
