package main

import (
	"context"

	"github.com/DioGolang/GoStock/internal/application/usecase/product"
)

var demoCatalogue = []product.CreateInput{
	{Name: "Mechanical Keyboard", PriceCents: 45900, Stock: 25, Category: "peripherals"},
	{Name: "Wireless Mouse", PriceCents: 12900, Stock: 40, Category: "peripherals"},
	{Name: "27in Monitor", PriceCents: 189900, Stock: 8, Category: "displays"},
	{Name: "USB-C Hub", PriceCents: 21900, Stock: 3, Category: "accessories"},
}

func seedDemoData(ctx context.Context, create product.CreateUseCase) error {
	for _, p := range demoCatalogue {
		if _, err := create.Execute(ctx, p); err != nil {
			return err
		}
	}
	return nil
}
