package main

import (
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strconv"

	"github.com/example/ec-storefront/internal/apiclient"
	"github.com/example/ec-storefront/internal/domain/order"
	"github.com/example/ec-storefront/internal/domain/product"
	"github.com/spf13/cobra"
)

func newRootCommand(rt *runtime) *cobra.Command {
	root := &cobra.Command{
		Use:           "storefront",
		Short:         "Electronics storefront client",
		SilenceUsage: true,
	}
	root.AddCommand(
		productsCommand(rt),
		searchCommand(rt),
		loginCommand(rt),
		registerCommand(rt),
		oauthCommand(rt),
		logoutCommand(rt),
		whoamiCommand(rt),
		cartCommand(rt),
		checkoutCommand(rt),
		ordersCommand(rt),
		themeCommand(rt),
	)
	return root
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid product id %q", arg)
	}
	return id, nil
}

func productsCommand(rt *runtime) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "products",
		Short: "List the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rt.state.Start(cmd.Context()); err != nil {
				return err
			}
			items := rt.state.Catalog().Products()
			if category != "" {
				items = rt.state.Catalog().ByCategory(category)
			}
			printProducts(rt.out, items)
			fmt.Fprintf(rt.out, "\n%d products, fetched %s\n", len(items), rt.state.Catalog().RefreshedAt().Format("15:04:05"))
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "only show this category")
	cmd.AddCommand(productShowCommand(rt), productAddCommand(rt), productUpdateCommand(rt), productDeleteCommand(rt))
	return cmd
}

func productShowCommand(rt *runtime) *cobra.Command {
	var imageOut string
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			p, err := rt.state.Product(cmd.Context(), id)
			if err != nil {
				return err
			}
			printProduct(rt.out, p)
			if imageOut == "" {
				return nil
			}
			data, _, err := rt.state.ProductImage(cmd.Context(), id)
			if err != nil {
				return err
			}
			return os.WriteFile(imageOut, data, 0o644)
		},
	}
	cmd.Flags().StringVar(&imageOut, "image-out", "", "write the product image to this file")
	return cmd
}

// readProductInput loads the product JSON and, when imagePath is set, the image
func readProductInput(productPath, imagePath string) (product.Product, *apiclient.Image, error) {
	var p product.Product
	raw, err := os.ReadFile(productPath)
	if err != nil {
		return p, nil, err
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, nil, fmt.Errorf("invalid product file: %w", err)
	}
	if imagePath == "" {
		return p, nil, nil
	}
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return p, nil, err
	}
	contentType := mime.TypeByExtension(filepath.Ext(imagePath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return p, &apiclient.Image{Name: filepath.Base(imagePath), ContentType: contentType, Data: data}, nil
}

func productAddCommand(rt *runtime) *cobra.Command {
	var file, image string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a product (admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, img, err := readProductInput(file, image)
			if err != nil {
				return err
			}
			if img == nil {
				return product.ErrMissingImageFile
			}
			created, err := rt.state.CreateProduct(cmd.Context(), p, *img)
			if err != nil {
				return err
			}
			printProduct(rt.out, created)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "product JSON file")
	cmd.Flags().StringVar(&image, "image", "", "product image file")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("image")
	return cmd
}

func productUpdateCommand(rt *runtime) *cobra.Command {
	var file, image string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a product (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			p, img, err := readProductInput(file, image)
			if err != nil {
				return err
			}
			return rt.state.UpdateProduct(cmd.Context(), id, p, img)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "product JSON file")
	cmd.Flags().StringVar(&image, "image", "", "replacement image file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func productDeleteCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a product (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return rt.state.DeleteProduct(cmd.Context(), id)
		},
	}
}

func searchCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "search <keyword>",
		Short: "Search products by keyword",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := rt.state.Search(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printProducts(rt.out, items)
			return nil
		},
	}
}

func loginCommand(rt *runtime) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Log in with username and password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("STOREFRONT_PASSWORD")
			}
			return rt.state.SignIn(cmd.Context(), args[0], password)
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "password (defaults to $STOREFRONT_PASSWORD)")
	return cmd
}

func registerCommand(rt *runtime) *cobra.Command {
	var password, fullName string
	cmd := &cobra.Command{
		Use:   "register <username>",
		Short: "Create an account and log in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("STOREFRONT_PASSWORD")
			}
			return rt.state.Register(cmd.Context(), args[0], password, fullName)
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "password (defaults to $STOREFRONT_PASSWORD)")
	cmd.Flags().StringVar(&fullName, "name", "", "full name")
	return cmd
}

func oauthCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "oauth <callback-query>",
		Short: "Complete a provider login from the callback query string",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.state.CompleteOAuth(cmd.Context(), args[0])
		},
	}
}

func logoutCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the session and the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.state.Logout(cmd.Context())
		},
	}
}

func whoamiCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess := rt.state.Session()
			if !sess.IsAuthenticated() {
				fmt.Fprintln(rt.out, "anonymous")
				return nil
			}
			role := "user"
			if sess.IsAdmin() {
				role = "admin"
			}
			fmt.Fprintf(rt.out, "%s (%s)\n", sess.Username(), role)
			if exp, ok := sess.ExpiresAt(); ok {
				fmt.Fprintf(rt.out, "token expires %s\n", exp.Format("2006-01-02 15:04:05 MST"))
			}
			return nil
		},
	}
}

func cartCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printCart(rt.out, rt.state.Cart().Lines(), rt.state.Cart().Summarize())
			return nil
		},
	}

	var qty int
	add := &cobra.Command{
		Use:   "add <product-id>",
		Short: "Add a product to the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := rt.state.Start(cmd.Context()); err != nil {
				return err
			}
			_, err = rt.state.AddToCart(cmd.Context(), id, qty)
			return err
		},
	}
	add.Flags().IntVarP(&qty, "quantity", "q", 1, "quantity to add")

	update := &cobra.Command{
		Use:   "update <product-id> <quantity>",
		Short: "Set the quantity of a cart line",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid quantity %q", args[1])
			}
			return rt.state.Cart().UpdateQuantity(cmd.Context(), id, n)
		},
	}

	remove := &cobra.Command{
		Use:   "remove <product-id>",
		Short: "Remove a line from the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return rt.state.Cart().Remove(cmd.Context(), id)
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.state.Cart().Clear(cmd.Context())
		},
	}

	cmd.AddCommand(add, update, remove, clearCmd)
	return cmd
}

func checkoutCommand(rt *runtime) *cobra.Command {
	var name, email string
	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Place an order for the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			placed, err := rt.state.PlaceOrder(cmd.Context(), name, email)
			if err != nil {
				return err
			}
			printOrders(rt.out, []order.Order{placed})
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "customer name")
	cmd.Flags().StringVar(&email, "email", "", "customer email")
	return cmd
}

func ordersCommand(rt *runtime) *cobra.Command {
	var all bool
	var status, term string
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "List your orders, or every order with --all (admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter order.Status
			if status != "" {
				parsed, err := order.ParseStatus(status)
				if err != nil {
					return err
				}
				filter = parsed
			}
			var (
				orders []order.Order
				err    error
			)
			if all {
				orders, err = rt.state.AllOrders(cmd.Context())
			} else {
				orders, err = rt.state.MyOrders(cmd.Context())
			}
			if err != nil {
				return err
			}
			orders = order.Filter(orders, term, filter)
			printOrders(rt.out, orders)
			if all {
				printStats(rt.out, order.Summarize(orders))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "list every customer's orders")
	cmd.Flags().StringVar(&status, "status", "", "only show orders in this status")
	cmd.Flags().StringVar(&term, "search", "", "match order id, customer name or email")

	cmd.AddCommand(&cobra.Command{
		Use:   "set-status <order-id> <status>",
		Short: "Change an order's status (admin)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			next, err := order.ParseStatus(args[1])
			if err != nil {
				return err
			}
			return rt.state.UpdateOrderStatus(cmd.Context(), order.ID(args[0]), next)
		},
	})
	return cmd
}

func themeCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "theme [light|dark|toggle]",
		Short: "Show, set or toggle the display theme",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess := rt.state.Session()
			if len(args) == 0 {
				fmt.Fprintln(rt.out, sess.Theme())
				return nil
			}
			if args[0] == "toggle" {
				next, err := sess.ToggleTheme(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(rt.out, next)
				return nil
			}
			return sess.SetTheme(cmd.Context(), args[0])
		},
	}
}
