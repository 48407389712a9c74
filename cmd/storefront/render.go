package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/example/ec-storefront/internal/domain/cart"
	"github.com/example/ec-storefront/internal/domain/order"
	"github.com/example/ec-storefront/internal/domain/product"
)

func table(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func printProducts(w io.Writer, items []product.Product) {
	if len(items) == 0 {
		fmt.Fprintln(w, "no products")
		return
	}
	tw := table(w)
	fmt.Fprintln(tw, "ID\tNAME\tBRAND\tCATEGORY\tPRICE\tSTOCK")
	for _, p := range items {
		stock := fmt.Sprint(p.StockQuantity)
		switch {
		case !p.InStock():
			stock = "out of stock"
		case p.LowStock():
			stock = fmt.Sprintf("only %d left", p.StockQuantity)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%.2f\t%s\n", p.ID, p.Name, p.Brand, p.Category, p.Price, stock)
	}
	_ = tw.Flush()
}

func printProduct(w io.Writer, p product.Product) {
	tw := table(w)
	fmt.Fprintf(tw, "ID\t%d\n", p.ID)
	fmt.Fprintf(tw, "Name\t%s\n", p.Name)
	fmt.Fprintf(tw, "Brand\t%s\n", p.Brand)
	fmt.Fprintf(tw, "Category\t%s\n", p.Category)
	fmt.Fprintf(tw, "Price\t%.2f\n", p.Price)
	fmt.Fprintf(tw, "Stock\t%d\n", p.StockQuantity)
	fmt.Fprintf(tw, "Available\t%t\n", p.ProductAvailable)
	if p.ReleaseDate != "" {
		fmt.Fprintf(tw, "Released\t%s\n", p.ReleaseDate)
	}
	fmt.Fprintf(tw, "Description\t%s\n", p.Description)
	_ = tw.Flush()
}

func printCart(w io.Writer, lines []cart.Line, summary cart.Summary) {
	if len(lines) == 0 {
		fmt.Fprintln(w, "cart is empty")
		return
	}
	tw := table(w)
	fmt.Fprintln(tw, "ID\tNAME\tQTY\tPRICE\tSUBTOTAL")
	for _, l := range lines {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%.2f\t%.2f\n", l.ProductID, l.Name, l.Quantity, l.Price, l.Subtotal())
	}
	fmt.Fprintln(tw, "\t\t\t\t")
	fmt.Fprintf(tw, "\tItems\t%d\t\t\n", summary.Items)
	fmt.Fprintf(tw, "\tSubtotal\t\t\t%.2f\n", summary.Subtotal)
	fmt.Fprintf(tw, "\tShipping\t\t\t%.2f\n", summary.Shipping)
	fmt.Fprintf(tw, "\tTax\t\t\t%.2f\n", summary.Tax)
	fmt.Fprintf(tw, "\tTotal\t\t\t%.2f\n", summary.GrandTotal)
	_ = tw.Flush()
}

func printOrders(w io.Writer, orders []order.Order) {
	if len(orders) == 0 {
		fmt.Fprintln(w, "no orders")
		return
	}
	tw := table(w)
	fmt.Fprintln(tw, "ORDER\tDATE\tCUSTOMER\tEMAIL\tSTATUS\tITEMS\tTOTAL")
	for _, o := range orders {
		date := o.OrderDate
		if t, ok := o.PlacedAt(); ok {
			date = t.Format("2006-01-02")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%.2f\n",
			o.OrderID, date, o.CustomerName, o.Email, o.Status, len(o.Items), o.Total())
	}
	_ = tw.Flush()
}

func printStats(w io.Writer, s order.Stats) {
	fmt.Fprintf(w, "\n%d orders: %d pending, %d shipped, %d delivered\n", s.Total, s.Pending, s.Shipped, s.Delivered)
}
