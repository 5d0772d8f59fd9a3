package domain

import "go.mongodb.org/mongo-driver/bson/primitive"

// ProductSales is one row of the sales report: units and revenue for a
// single product across all paid or completed orders, computed from the
// order item snapshots.
type ProductSales struct {
	ProductID primitive.ObjectID `bson:"_id" json:"product_id"`
	Name      string             `bson:"name" json:"name"`
	UnitsSold int64              `bson:"units_sold" json:"units_sold"`
	Revenue   int64              `bson:"revenue" json:"revenue"`
}

type SalesReport struct {
	Products     []ProductSales `json:"products"`
	TotalUnits   int64          `json:"total_units"`
	TotalRevenue int64          `json:"total_revenue"`
}
