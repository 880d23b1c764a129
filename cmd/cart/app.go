package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"glowloops/internal/apiclient"
	"glowloops/internal/cartstore"
	"glowloops/internal/config"
	"glowloops/internal/domain"
	"glowloops/internal/localstore"
	"glowloops/internal/session"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// sessionKey is where the signed-in shopper and token are kept locally.
const sessionKey = "glowloops-session"

var errUsage = errors.New("usage")

type savedSession struct {
	ShopperID string `json:"shopperId"`
	Token     string `json:"token"`
}

type app struct {
	out      io.Writer
	storage  localstore.Storage
	client   *apiclient.Client
	session  *session.Provider
	store    *cartstore.Store
	listener *cartstore.SessionListener
	logger   *zap.Logger
}

func newApp(ctx context.Context, cfg config.Config, storage localstore.Storage, out io.Writer, logger *zap.Logger) (*app, error) {
	policy, err := cartstore.ParseLoadPolicy(cfg.LoadPolicy)
	if err != nil {
		return nil, err
	}

	a := &app{
		out:     out,
		storage: storage,
		client:  apiclient.New(cfg.APIBaseURL, logger.Named("api")),
		session: session.NewProvider(),
		logger:  logger,
	}
	if saved, ok := a.loadSession(); ok {
		a.session.Restore(saved.ShopperID)
		a.client.SetToken(saved.Token)
	}

	a.store = cartstore.Open(storage,
		cartstore.WithLogger(logger.Named("store")),
		cartstore.WithRemote(a.client),
		cartstore.WithShopper(a.session),
		cartstore.WithMaxLineQuantity(cfg.MaxLineQuantity),
		cartstore.WithLoadPolicy(policy),
	)
	a.listener = cartstore.WatchSession(ctx, a.session, a.store, a.onLoad)
	return a, nil
}

func (a *app) Close() {
	a.listener.Close()
}

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "show":
		a.show()
		return nil
	case "products":
		return a.products(ctx)
	case "add":
		return a.add(ctx, rest)
	case "update":
		return a.update(ctx, rest)
	case "remove":
		if len(rest) != 1 {
			return errUsage
		}
		a.store.RemoveItem(rest[0])
		return a.afterMutation(ctx)
	case "clear":
		a.store.Clear()
		return a.afterMutation(ctx)
	case "shipping":
		return a.shipping(ctx, rest)
	case "discount":
		return a.discount(ctx, rest)
	case "signup":
		return a.signup(ctx, rest)
	case "login":
		return a.login(ctx, rest)
	case "logout":
		return a.logout(ctx)
	case "sync":
		return a.sync(ctx)
	default:
		return errUsage
	}
}

func (a *app) add(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	qty := fs.Int("qty", 1, "quantity")
	color := fs.String("color", "", "color variant")
	addOnID := fs.String("addon", "", "add-on id")
	if err := fs.Parse(args); err != nil || fs.NArg() != 1 {
		return errUsage
	}

	p, err := a.client.Product(ctx, fs.Arg(0))
	if err != nil {
		return fmt.Errorf("look up product: %w", err)
	}
	in := domain.LineItemInput{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.Price(),
		Quantity:  *qty,
		ImageRef:  p.ImageRef(),
		Color:     *color,
	}
	if in.Color != "" && len(p.Colors) > 0 && !contains(p.Colors, in.Color) {
		return fmt.Errorf("%s comes in %s", p.Name, strings.Join(p.Colors, ", "))
	}
	if *addOnID != "" {
		addOn, ok := findAddOn(p.AddOns, *addOnID)
		if !ok {
			return fmt.Errorf("%s has no add-on %q", p.Name, *addOnID)
		}
		in.AddOn = &addOn
	}

	line, err := a.store.AddItem(in)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s x%d in cart (line %s)\n", line.Name, line.Quantity, line.ID)
	return a.afterMutation(ctx)
}

func (a *app) update(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	qty, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("quantity must be a number: %w", err)
	}
	if err := a.store.UpdateItemQuantity(args[0], qty); err != nil {
		return err
	}
	return a.afterMutation(ctx)
}

func (a *app) shipping(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	if args[0] == "none" {
		a.store.SetShipping(nil)
		return a.afterMutation(ctx)
	}
	price, err := decimal.NewFromString(args[0])
	if err != nil || price.IsNegative() {
		return fmt.Errorf("invalid shipping price %q", args[0])
	}
	a.store.SetShipping(&domain.Shipping{Price: price})
	return a.afterMutation(ctx)
}

func (a *app) discount(ctx context.Context, args []string) error {
	if len(args) == 1 && args[0] == "none" {
		a.store.SetDiscount(nil)
		return a.afterMutation(ctx)
	}
	if len(args) != 2 {
		return errUsage
	}
	kind := args[0]
	if kind != domain.DiscountPercentage && kind != domain.DiscountFixed {
		return fmt.Errorf("discount type must be %s or %s", domain.DiscountPercentage, domain.DiscountFixed)
	}
	amount, err := decimal.NewFromString(args[1])
	if err != nil || amount.IsNegative() {
		return fmt.Errorf("invalid discount amount %q", args[1])
	}
	if kind == domain.DiscountPercentage && amount.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("percentage discount must be between 0 and 100, got %s", amount)
	}
	a.store.SetDiscount(&domain.Discount{Type: kind, Amount: amount})
	return a.afterMutation(ctx)
}

func (a *app) signup(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	c, err := a.client.Signup(ctx, apiclient.SignupRequest{Email: args[0], Password: args[1]})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "account %s created, log in to sync your cart\n", c.Email)
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	res, err := a.client.Login(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	a.saveSession(savedSession{ShopperID: res.CustomerID, Token: res.AccessToken})
	fmt.Fprintf(a.out, "signed in as %s\n", args[0])
	// The session listener pulls the account cart on this transition.
	a.session.SignIn(res.CustomerID)
	return nil
}

func (a *app) logout(ctx context.Context) error {
	if err := a.client.Logout(ctx); err != nil {
		a.logger.Warn("revoke token", zap.Error(err))
	}
	if err := a.storage.Delete(sessionKey); err != nil {
		a.logger.Warn("forget session", zap.Error(err))
	}
	a.session.SignOut()
	fmt.Fprintln(a.out, "signed out; your cart stays on this device")
	return nil
}

func (a *app) sync(ctx context.Context) error {
	res, err := a.store.SyncWithRemote(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthenticated) {
			return errors.New("log in first")
		}
		return err
	}
	fmt.Fprintf(a.out, "sync: %s\n", res.Outcome)
	return nil
}

// afterMutation pushes the cart when signed in. Failures are reported but
// the local change stands.
func (a *app) afterMutation(ctx context.Context) error {
	if _, ok := a.session.CurrentShopperID(); ok {
		if res, err := a.store.SyncWithRemote(ctx); err != nil {
			fmt.Fprintf(a.out, "warning: cart saved locally, sync failed: %v\n", err)
		} else if res.Outcome == cartstore.OutcomeReplaced {
			fmt.Fprintln(a.out, "your account had a newer cart; showing that one")
		}
	}
	a.show()
	return nil
}

func (a *app) onLoad(ev session.Event, res cartstore.SyncResult, err error) {
	switch {
	case err != nil:
		fmt.Fprintf(a.out, "could not load your saved cart: %v\n", err)
	case res.Outcome == cartstore.OutcomeAbsent:
		fmt.Fprintln(a.out, "no saved cart on your account yet")
	default:
		fmt.Fprintf(a.out, "loaded your saved cart (%s)\n", res.Outcome)
	}
}

func (a *app) products(ctx context.Context) error {
	list, err := a.client.Products(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPRICE\tCOLORS\tADD-ONS")
	for _, p := range list {
		addOns := make([]string, 0, len(p.AddOns))
		for _, ao := range p.AddOns {
			addOns = append(addOns, fmt.Sprintf("%s (+%s)", ao.ID, ao.Price.StringFixed(2)))
		}
		fmt.Fprintf(w, "%s\t%s\t%s %s\t%s\t%s\n", p.ID, p.Name, p.Price().StringFixed(2), p.Currency,
			strings.Join(p.Colors, ","), strings.Join(addOns, ", "))
	}
	return w.Flush()
}

func (a *app) show() {
	items := a.store.Items()
	if len(items) == 0 {
		fmt.Fprintln(a.out, "cart is empty")
	} else {
		w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "LINE\tITEM\tCOLOR\tADD-ON\tQTY\tUNIT\tTOTAL")
		for _, it := range items {
			addOn := "-"
			if it.AddOn != nil {
				addOn = fmt.Sprintf("%s (+%s)", it.AddOn.Name, it.AddOn.Price.StringFixed(2))
			}
			color := it.Color
			if color == "" {
				color = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n", it.ID, it.Name, color, addOn, it.Quantity,
				it.UnitPrice.StringFixed(2), it.LineTotal().StringFixed(2))
		}
		_ = w.Flush()
	}

	totals := a.store.Totals()
	fmt.Fprintf(a.out, "items: %d  subtotal: %s", totals.ItemCount, totals.Subtotal.StringFixed(2))
	if sh := a.store.Shipping(); sh != nil {
		fmt.Fprintf(a.out, "  shipping: %s", sh.Price.StringFixed(2))
	}
	if d := a.store.Discount(); d != nil {
		if d.Type == domain.DiscountPercentage {
			fmt.Fprintf(a.out, "  discount: %s%%", d.Amount.String())
		} else {
			fmt.Fprintf(a.out, "  discount: -%s", d.Amount.StringFixed(2))
		}
	}
	fmt.Fprintf(a.out, "  total: %s\n", totals.Total.StringFixed(2))
}

func (a *app) loadSession() (savedSession, bool) {
	raw, err := a.storage.Read(sessionKey)
	if err != nil {
		if !errors.Is(err, localstore.ErrNotExist) {
			a.logger.Warn("read session", zap.Error(err))
		}
		return savedSession{}, false
	}
	var s savedSession
	if err := json.Unmarshal(raw, &s); err != nil || s.ShopperID == "" || s.Token == "" {
		a.logger.Warn("discarding unreadable session")
		return savedSession{}, false
	}
	return s, true
}

func (a *app) saveSession(s savedSession) {
	raw, err := json.Marshal(s)
	if err != nil {
		a.logger.Warn("encode session", zap.Error(err))
		return
	}
	if err := a.storage.Write(sessionKey, raw); err != nil {
		a.logger.Warn("persist session", zap.Error(err))
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}

func findAddOn(addOns []domain.AddOn, id string) (domain.AddOn, bool) {
	for _, ao := range addOns {
		if ao.ID == id {
			return ao, true
		}
	}
	return domain.AddOn{}, false
}
