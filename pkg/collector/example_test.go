package collector_test

import (
	"context"
	"fmt"

	"emojiharvest/pkg/collector"
	"emojiharvest/pkg/logger"
)

// pages is a view that reveals one more page per advance
type pages struct {
	data [][]collector.Item
	pos  int
}

func (p *pages) Enumerate(ctx context.Context) ([]collector.Item, error) {
	return p.data[p.pos], nil
}

func (p *pages) Exhausted(ctx context.Context) (bool, error) {
	return p.pos == len(p.data)-1, nil
}

func (p *pages) Advance(ctx context.Context) error {
	p.pos++
	return nil
}

func (p *pages) Reset(ctx context.Context) error {
	p.pos = 0
	return nil
}

func ExampleCollector_Run() {
	view := &pages{data: [][]collector.Item{
		{{Key: "thumbsup", Value: "https://emoji.example/thumbsup.png"}},
		{{Key: "wave", Value: "https://emoji.example/wave.png"}},
	}}

	sink := collector.SinkFunc(func(ctx context.Context, result collector.ResultSet) error {
		for _, item := range result.Items() {
			fmt.Printf("%s -> %s\n", item.Key, item.Value)
		}
		return nil
	})

	c, err := collector.New(view, sink, collector.Options{Logger: logger.NewNopLogger()})
	if err != nil {
		fmt.Println(err)
		return
	}

	report, err := c.Run(context.Background())
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Printf("%d emoji in %d cycles\n", report.Total(), report.Cycles())
	// Output:
	// thumbsup -> https://emoji.example/thumbsup.png
	// wave -> https://emoji.example/wave.png
	// 2 emoji in 2 cycles
}
