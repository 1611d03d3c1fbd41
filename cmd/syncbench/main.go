package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/d60-Lab/feedcore/config"
	"github.com/d60-Lab/feedcore/internal/docstore"
	"github.com/d60-Lab/feedcore/internal/model"
	"github.com/d60-Lab/feedcore/internal/repository"
	"github.com/d60-Lab/feedcore/internal/service"
)

func must[T any](v T, err error) T { if err != nil { panic(err) }; return v }

func main() {
	cfg := must(config.Load())
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Store.RedisAddr, DB: cfg.Store.RedisDB})
	store := docstore.NewRedisStore(rdb)
	defer store.Close()

	ctx := context.Background()

	N := 5000
	if s := os.Getenv("N"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 { N = n }
	}
	CONC := 8
	if s := os.Getenv("CONC"); s != "" {
		if c, err := strconv.Atoi(s); err == nil && c > 0 { CONC = c }
	}
	SUBN := 200
	if s := os.Getenv("SUBN"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 { SUBN = n }
	}

	profiles := repository.NewProfileRepository(store)
	toggles := service.NewToggleEngine(store)
	sync := service.NewSynchronizer(store, profiles, 8)

	// seed one post plus the toggling users
	postID := uuid.New().String()
	post := model.Post{UserID: "bench", DisplayName: "bench", Content: "toggle target", Category: "General"}
	if err := store.Create(ctx, docstore.Join(model.CollectionPosts, postID), post.Fields()); err != nil {
		panic(err)
	}
	users := make([]string, N)
	for i := range users {
		users[i] = uuid.New().String()
	}

	// toggle throughput with CONC workers, half like half dislike
	recs := make([]time.Duration, 0, N)
	ch := make(chan time.Duration, N)
	feed := make(chan int, N)
	for i := 0; i < N; i++ { feed <- i }
	close(feed)
	workers := CONC
	if workers > N { workers = N }
	doneCh := make(chan error, workers)
	t0 := time.Now()
	for w := 0; w < workers; w++ {
		go func() {
			for i := range feed {
				set := model.FieldLikes
				exclusive := model.FieldDislikes
				if i%2 == 1 {
					set, exclusive = exclusive, set
				}
				st := time.Now()
				_, _ = toggles.Toggle(ctx, service.ToggleRef{
					Parent:        docstore.Join(model.CollectionPosts, postID),
					Set:           set,
					Participant:   users[i],
					ExclusiveWith: exclusive,
				})
				ch <- time.Since(st)
			}
			doneCh <- nil
		}()
	}
	for w := 0; w < workers; w++ { <-doneCh }
	close(ch)
	for d := range ch { recs = append(recs, d) }
	toggleDur := time.Since(t0)

	// subscription latency: time from write to enriched snapshot delivery
	subCol := "posts/" + postID + "/comments"
	batches, cancel := must2(sync.Subscribe(ctx, docstore.Query{Collection: subCol, Desc: true}))
	<-batches // initial snapshot
	subRecs := make([]time.Duration, 0, SUBN)
	for i := 0; i < SUBN; i++ {
		st := time.Now()
		id := uuid.New().String()
		_ = store.Create(ctx, docstore.Join(subCol, id), map[string]any{"user_id": "bench", "content": "m"})
		want := i + 1
		for b := range batches {
			if len(b.Docs) >= want {
				subRecs = append(subRecs, time.Since(st))
				break
			}
		}
	}
	cancel()

	pct := func(vs []time.Duration, p float64) time.Duration {
		if len(vs) == 0 { return 0 }
		xs := append([]time.Duration(nil), vs...)
		sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
		k := int(math.Ceil(p*float64(len(xs)))) - 1
		if k < 0 { k = 0 }
		if k >= len(xs) { k = len(xs) - 1 }
		return xs[k]
	}

	fmt.Printf("N=%d, CONC=%d, SUBN=%d\n", N, CONC, SUBN)
	fmt.Printf("Toggle total: %v, per op: %v, p50: %v, p95: %v, p99: %v\n",
		toggleDur, toggleDur/time.Duration(N), pct(recs, 0.50), pct(recs, 0.95), pct(recs, 0.99))
	fmt.Printf("Snapshot delivery: samples=%d, p50=%v, p95=%v, p99=%v\n",
		len(subRecs), pct(subRecs, 0.50), pct(subRecs, 0.95), pct(subRecs, 0.99))
}

func must2[A, B any](a A, b B, err error) (A, B) {
	if err != nil { panic(err) }
	return a, b
}
