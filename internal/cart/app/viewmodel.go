package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dwikikusuma/quickcart/internal/cart/domain"
	catalog "github.com/dwikikusuma/quickcart/internal/catalog/domain"
	"github.com/dwikikusuma/quickcart/pkg/apiclient"
)

var ErrInvalidInput = errors.New("invalid input")

// ViewModel owns the client's copy of the cart. Only Replace (fed by the
// stream or a fetch) and Reset write it; intents go to the backend and wait
// for the stream to report the result.
type ViewModel struct {
	remote    RemoteCart
	sessionID string

	mu       sync.RWMutex
	view     domain.View
	watchers map[chan domain.View]struct{}
}

func NewViewModel(remote RemoteCart, sessionID string) *ViewModel {
	return &ViewModel{
		remote:    remote,
		sessionID: sessionID,
		view:      domain.NewView(domain.Empty()),
		watchers:  make(map[chan domain.View]struct{}),
	}
}

func (vm *ViewModel) SessionID() string { return vm.sessionID }

// Load fetches the current snapshot. A cart the server has never seen is
// an empty cart.
func (vm *ViewModel) Load(ctx context.Context) error {
	cart, err := vm.remote.FetchCart(ctx, vm.sessionID)
	if err != nil {
		if !errors.Is(err, apiclient.ErrNotFound) {
			return fmt.Errorf("load cart: %w", err)
		}
		cart = domain.Empty()
	}
	vm.Replace(cart)
	return nil
}

func (vm *ViewModel) Replace(cart domain.Cart) {
	if cart.Items == nil {
		cart.Items = []domain.CartItem{}
	}
	v := domain.NewView(cart)

	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.view = v
	for ch := range vm.watchers {
		offer(ch, v)
	}
}

func (vm *ViewModel) Reset() {
	vm.Replace(domain.Empty())
}

func (vm *ViewModel) View() domain.View {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.view
}

func (vm *ViewModel) QuantityOf(id catalog.ProductID) int {
	return vm.View().QuantityOf(id)
}

func (vm *ViewModel) ItemCount() int {
	return vm.View().ItemCount
}

func (vm *ViewModel) TotalAmount() float64 {
	return vm.View().TotalAmount
}

// Watch delivers the current view and then every later one. Slow readers
// only see the latest view. The channel closes when ctx ends.
func (vm *ViewModel) Watch(ctx context.Context) <-chan domain.View {
	ch := make(chan domain.View, 1)

	vm.mu.Lock()
	ch <- vm.view
	vm.watchers[ch] = struct{}{}
	vm.mu.Unlock()

	go func() {
		<-ctx.Done()
		vm.mu.Lock()
		delete(vm.watchers, ch)
		close(ch)
		vm.mu.Unlock()
	}()
	return ch
}

// offer replaces whatever is buffered in ch with v. Caller holds vm.mu.
func offer(ch chan domain.View, v domain.View) {
	select {
	case ch <- v:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- v:
	default:
	}
}

func (vm *ViewModel) AddToCart(ctx context.Context, id catalog.ProductID) error {
	if err := vm.add(ctx, id); err != nil {
		return fmt.Errorf("add %s to cart: %w", id, err)
	}
	return nil
}

func (vm *ViewModel) Increase(ctx context.Context, id catalog.ProductID) error {
	if err := vm.add(ctx, id); err != nil {
		return fmt.Errorf("increase %s: %w", id, err)
	}
	return nil
}

func (vm *ViewModel) Decrease(ctx context.Context, id catalog.ProductID) error {
	one := 1
	if err := vm.remove(ctx, id, &one); err != nil {
		return fmt.Errorf("decrease %s: %w", id, err)
	}
	return nil
}

func (vm *ViewModel) Remove(ctx context.Context, id catalog.ProductID) error {
	if err := vm.remove(ctx, id, nil); err != nil {
		return fmt.Errorf("remove %s: %w", id, err)
	}
	return nil
}

func (vm *ViewModel) add(ctx context.Context, id catalog.ProductID) error {
	if id == "" {
		return ErrInvalidInput
	}
	return vm.remote.AddOrIncrease(ctx, vm.sessionID, id, 1)
}

func (vm *ViewModel) remove(ctx context.Context, id catalog.ProductID, quantity *int) error {
	if id == "" {
		return ErrInvalidInput
	}
	return vm.remote.DecreaseOrRemove(ctx, vm.sessionID, id, quantity)
}
