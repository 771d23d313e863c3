package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/niksmo/storefront/internal/core/domain"
)

const helpText = `Commands:
  list                  show the catalog with the current filter
  filter <source>       all, fakestoreapi or dummyjson
  show <id>             product details
  add <id>              add a product to the cart
  inc <id> | dec <id>   change a cart line quantity
  rm <id>               remove a cart line
  cart | close          open or close the cart
  checkout              complete the purchase
  reload                load the catalog again
  help                  this text
  quit                  exit
`

var errQuit = errors.New("quit")

// A Controller is what the REPL drives.
type Controller interface {
	LoadCatalog(context.Context) error
	SetFilter(domain.Source)
	VisibleProducts() []domain.Product
	OpenCart()
	CloseCart()
	AddToCart(productID string) error
	IncreaseQuantity(productID string) error
	DecreaseQuantity(productID string) error
	RemoveFromCart(productID string)
	ShowProductDetail(productID string) error
	Checkout() bool
}

type REPL struct {
	ctrl Controller
	view *View
	in   io.Reader
}

func NewREPL(ctrl Controller, view *View, in io.Reader) *REPL {
	return &REPL{ctrl: ctrl, view: view, in: in}
}

// Run reads commands until EOF, quit or ctx is done.
func (r *REPL) Run(ctx context.Context) error {
	const op = "REPL.Run"
	log := slog.With("op", op)

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r.in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	r.view.Printf("Type \"help\" for commands.\n")
	for {
		select {
		case <-ctx.Done():
			log.Info("interrupted")
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					if err != nil {
						return fmt.Errorf("%s: %w", op, err)
					}
				default:
				}
				return nil
			}
			if err := r.Exec(ctx, line); err != nil {
				if errors.Is(err, errQuit) {
					return nil
				}
				r.view.Printf("Error: %v\n", err)
			}
		}
	}
}

// Exec runs a single command line.
func (r *REPL) Exec(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "help", "?":
		r.view.Printf(helpText)
	case "quit", "exit":
		return errQuit
	case "list", "ls":
		r.view.RenderCatalog(r.ctrl.VisibleProducts())
	case "reload":
		// the view already shows the load error
		_ = r.ctrl.LoadCatalog(ctx)
	case "filter":
		if len(args) != 1 {
			return errors.New("usage: filter <all|fakestoreapi|dummyjson>")
		}
		src, err := domain.ParseSource(args[0])
		if err != nil {
			return err
		}
		r.ctrl.SetFilter(src)
	case "cart":
		r.ctrl.OpenCart()
	case "close":
		r.ctrl.CloseCart()
	case "checkout":
		if !r.ctrl.Checkout() {
			r.view.Printf("Your cart is empty.\n")
		}
	case "show", "add", "inc", "dec", "rm":
		if len(args) != 1 {
			return fmt.Errorf("usage: %s <id>", cmd)
		}
		return r.execItem(cmd, args[0])
	default:
		return fmt.Errorf("unknown command %q, type \"help\"", cmd)
	}
	return nil
}

func (r *REPL) execItem(cmd, id string) error {
	switch cmd {
	case "show":
		return r.ctrl.ShowProductDetail(id)
	case "add":
		return r.ctrl.AddToCart(id)
	case "inc":
		return r.ctrl.IncreaseQuantity(id)
	case "dec":
		return r.ctrl.DecreaseQuantity(id)
	case "rm":
		r.ctrl.RemoveFromCart(id)
	}
	return nil
}
