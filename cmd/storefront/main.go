// Package main реализует консольную витрину магазина ключей: каталог,
// локальную корзину с купонами, список желаемого и оформление заказа.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/keystore/internal/model"
	"github.com/mmeshcher/keystore/internal/storefront"
)

const usage = `usage: storefront [-api addr] [-state file] <command> [args]

commands:
  login <email> <password>
  catalog [-category c] [-platform p] [-search s] [-sort f] [-page n] [slice]
  cart ls | add <id> [qty] | qty <id> <n> | rm <id> | clear
  wishlist [id]
  coupon <code> | coupon -remove
  alert <id> <email> <price> | alert check
  checkout -payment m -name n -email e -phone p -address a [-notes s]
  orders
  cancel <id> [reason]
`

var errUsage = errors.New("invalid arguments")

type app struct {
	client *storefront.Client
	state  *storefront.State
	out    io.Writer
	logger *zap.SugaredLogger
	now    func() time.Time
}

func main() {
	fs := flag.NewFlagSet("storefront", flag.ExitOnError)
	apiAddr := fs.String("api", envOr("KEYSTORE_API", "localhost:8080"), "keystore API address")
	statePath := fs.String("state", envOr("KEYSTORE_STATE", defaultStatePath()), "state file path")
	verbose := fs.Bool("v", false, "verbose logging")
	fs.Usage = func() { fmt.Fprint(fs.Output(), usage) }
	_ = fs.Parse(os.Args[1:])

	logger := zap.NewNop()
	if *verbose {
		if l, err := zap.NewDevelopment(); err == nil {
			logger = l
		}
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	if fs.NArg() == 0 {
		fs.Usage()
		os.Exit(2)
	}

	state, err := storefront.LoadFile(*statePath)
	if err != nil {
		sugar.Errorw("failed to load state", "path", *statePath, "error", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	client := storefront.NewClient(*apiAddr)
	client.SetToken(state.Token)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{client: client, state: state, out: os.Stdout, logger: sugar, now: time.Now}
	if err := a.run(ctx, fs.Arg(0), fs.Args()[1:]); err != nil {
		sugar.Debugw("command failed", "command", fs.Arg(0), "error", err)
		fmt.Fprintln(os.Stderr, "error:", err)
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		os.Exit(1)
	}

	if err := state.SaveFile(*statePath); err != nil {
		sugar.Errorw("failed to save state", "path", *statePath, "error", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "storefront.json"
	}
	return dir + "/keystore/storefront.json"
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "login":
		return a.login(ctx, args)
	case "catalog":
		return a.catalog(ctx, args)
	case "cart":
		return a.cart(ctx, args)
	case "wishlist":
		return a.wishlist(args)
	case "coupon":
		return a.coupon(args)
	case "alert":
		return a.alert(ctx, args)
	case "checkout":
		return a.checkout(ctx, args)
	case "orders":
		return a.orders(ctx)
	case "cancel":
		return a.cancel(ctx, args)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

func (a *app) login(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	res, err := a.client.Login(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	a.state.Token = res.Token
	user := res.User
	a.state.User = &user
	fmt.Fprintf(a.out, "logged in as %s (%s)\n", res.User.Email, res.User.Role)
	return nil
}

func (a *app) catalog(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("catalog", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	category := fs.String("category", "", "category")
	platform := fs.String("platform", "", "platform")
	search := fs.String("search", "", "search text")
	sort := fs.String("sort", "", "sort fields")
	page := fs.Int("page", 1, "page number")
	limit := fs.Int("limit", 0, "page size")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	if fs.NArg() == 1 {
		items, err := a.client.Slice(ctx, model.Slice(fs.Arg(0)))
		if err != nil {
			return err
		}
		a.printProducts(items)
		return nil
	}

	p, err := a.client.Products(ctx, storefront.ProductQuery{
		Category: model.Category(*category),
		Platform: model.Platform(*platform),
		Search:   *search,
		Sort:     *sort,
		Page:     *page,
		Limit:    *limit,
	})
	if err != nil {
		return err
	}
	a.printProducts(p.Items)
	fmt.Fprintf(a.out, "page %d of %d, %d total\n", p.Pagination.Page, p.Pagination.Pages, p.Total)
	return nil
}

func (a *app) printProducts(items []model.Product) {
	now := a.now()
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPLATFORM\tPRICE\tSTOCK")
	for i := range items {
		p := &items[i]
		price := money(p.EffectivePrice(now))
		if p.OnSale(now) {
			price += fmt.Sprintf(" (-%g%%)", p.SalePercentage)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", p.ID, p.Name, p.Platform, price, p.Stock)
	}
	_ = w.Flush()
}

func (a *app) cart(ctx context.Context, args []string) error {
	if len(args) == 0 {
		args = []string{"ls"}
	}

	switch args[0] {
	case "ls":
	case "add":
		if len(args) < 2 || len(args) > 3 {
			return errUsage
		}
		id, err := parseID(args[1])
		if err != nil {
			return err
		}
		qty := 1
		if len(args) == 3 {
			if qty, err = strconv.Atoi(args[2]); err != nil {
				return fmt.Errorf("%w: quantity %q", errUsage, args[2])
			}
		}
		p, err := a.client.Product(ctx, id)
		if err != nil {
			return err
		}
		if err := a.state.AddToCart(p, qty, a.now()); err != nil {
			return err
		}
	case "qty":
		if len(args) != 3 {
			return errUsage
		}
		id, err := parseID(args[1])
		if err != nil {
			return err
		}
		qty, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("%w: quantity %q", errUsage, args[2])
		}
		if !a.state.UpdateQuantity(id, qty) {
			return fmt.Errorf("product %s is not in the cart", id)
		}
	case "rm":
		if len(args) != 2 {
			return errUsage
		}
		id, err := parseID(args[1])
		if err != nil {
			return err
		}
		if !a.state.RemoveFromCart(id) {
			return fmt.Errorf("product %s is not in the cart", id)
		}
	case "clear":
		a.state.ClearCart()
	default:
		return fmt.Errorf("%w: unknown cart command %q", errUsage, args[0])
	}

	a.printCart()
	return nil
}

func (a *app) printCart() {
	if len(a.state.Cart) == 0 {
		fmt.Fprintln(a.out, "cart is empty")
		return
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPRICE\tQTY")
	for _, l := range a.state.Cart {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", l.ProductID, l.Name, money(l.Price), l.Quantity)
	}
	_ = w.Flush()

	t := a.state.Totals()
	fmt.Fprintf(a.out, "items: %d  subtotal: %s", t.Items, money(t.Subtotal))
	if a.state.Coupon != "" {
		fmt.Fprintf(a.out, "  coupon %s: -%s", a.state.Coupon, money(t.Discount))
	}
	fmt.Fprintf(a.out, "  total: %s\n", money(t.Total))
}

func (a *app) wishlist(args []string) error {
	if len(args) == 1 {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if a.state.ToggleWishlist(id) {
			fmt.Fprintln(a.out, "added to wishlist")
		} else {
			fmt.Fprintln(a.out, "removed from wishlist")
		}
		return nil
	}
	for _, id := range a.state.Wishlist {
		fmt.Fprintln(a.out, id)
	}
	return nil
}

func (a *app) coupon(args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	if args[0] == "-remove" {
		a.state.RemoveCoupon()
		fmt.Fprintln(a.out, "coupon removed")
		return nil
	}

	d, err := a.state.ApplyCoupon(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "coupon applied, discount %s\n", money(d))
	return nil
}

func (a *app) alert(ctx context.Context, args []string) error {
	if len(args) == 1 && args[0] == "check" {
		var products []model.Product
		for _, al := range a.state.Alerts {
			if !al.IsActive {
				continue
			}
			p, err := a.client.Product(ctx, al.ProductID)
			if err != nil {
				a.logger.Warnw("failed to fetch product for price alert", "product", al.ProductID, "error", err)
				continue
			}
			products = append(products, *p)
		}
		for _, al := range a.state.CheckAlerts(products, a.now()) {
			fmt.Fprintf(a.out, "%s dropped to %s or below (alert for %s)\n", al.ProductName, money(al.AlertPrice), al.Email)
		}
		return nil
	}

	if len(args) != 3 {
		return errUsage
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	price, err := decimal.NewFromString(args[2])
	if err != nil || price.IsNegative() {
		return fmt.Errorf("%w: price %q", errUsage, args[2])
	}
	p, err := a.client.Product(ctx, id)
	if err != nil {
		return err
	}
	a.state.SetPriceAlert(p, args[1], price, a.now())
	fmt.Fprintf(a.out, "alert set for %s at %s\n", p.Name, money(price))
	return nil
}

func (a *app) checkout(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("checkout", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	payment := fs.String("payment", string(model.PaymentMethodBank), "payment method")
	var addr model.ShippingAddress
	fs.StringVar(&addr.FullName, "name", "", "full name")
	fs.StringVar(&addr.Email, "email", "", "email")
	fs.StringVar(&addr.Phone, "phone", "", "phone")
	fs.StringVar(&addr.Address, "address", "", "address")
	notes := fs.String("notes", "", "order notes")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	if a.state.Token == "" {
		return errors.New("login required")
	}
	if addr.Email == "" && a.state.User != nil {
		addr.Email = a.state.User.Email
	}
	if addr.FullName == "" && a.state.User != nil {
		addr.FullName = a.state.User.Fullname
	}

	req, err := a.state.CheckoutRequest(model.PaymentMethod(*payment), addr, *notes)
	if err != nil {
		return err
	}
	o, err := a.client.CreateOrder(ctx, req)
	if err != nil {
		return err
	}

	a.state.ClearCart()
	fmt.Fprintf(a.out, "order %s created, total %s, status %s\n", o.ID, money(o.Total), o.Status)
	return nil
}

func (a *app) orders(ctx context.Context) error {
	items, err := a.client.Orders(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tSTATUS\tPAYMENT\tTOTAL\tKEYS")
	for _, o := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n",
			o.ID, o.CreatedAt.Format(time.DateTime), o.Status, o.PaymentStatus, money(o.Total), len(o.GameKeys))
	}
	return w.Flush()
}

func (a *app) cancel(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return errUsage
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	reason := ""
	if len(args) == 2 {
		reason = args[1]
	}

	o, err := a.client.CancelOrder(ctx, id, reason)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "order %s %s\n", o.ID, o.Status)
	return nil
}

func parseID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid id %q", errUsage, s)
	}
	return id, nil
}

func money(d decimal.Decimal) string {
	return d.StringFixed(0) + " VND"
}
