package inflight_test

import (
	"context"
	"fmt"
	"os"

	inflight "github.com/hongliangan/inflight"
	"github.com/hongliangan/inflight/config"
	"github.com/hongliangan/inflight/store"
)

func Example() {
	dir, err := os.MkdirTemp("", "inflight-example")
	if err != nil {
		fmt.Println(err)
		return
	}
	defer os.RemoveAll(dir)

	cfg := config.Default()
	cfg.Cache.Directory = dir
	cfg.Observe.Logging.Enabled = false

	client, err := inflight.New(context.Background(), cfg)
	if err != nil {
		fmt.Println(err)
		return
	}
	defer client.Close(context.Background())

	req := inflight.Request{
		Operation: "identify-item",
		Params:    map[string]any{"photo_id": "p-7"},
		Category:  store.CategoryIdentification,
	}

	// The executor is the actual backend call; here it is stubbed.
	result, err := client.Enqueue(context.Background(), req, func(ctx context.Context) ([]byte, error) {
		return []byte("hiking boots"), nil
	})
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(string(result))

	stats := client.Stats(context.Background())
	fmt.Println("cached entries:", stats.Cache.EntryCount)

	// Output:
	// hiking boots
	// cached entries: 1
}
