package io

import (
	"context"
	"sync"
)

type Producer interface {
	Produce(ctx context.Context, work chan<- *WorkUnit, wg *sync.WaitGroup)
}
