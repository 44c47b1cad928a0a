// Package models contains GORM persistence models that map to database
// tables. Domain entities stay free of ORM tags; repositories convert with
// ToDomain/FromDomain.
//
//   - base.go: BaseModel shared by every table
//   - catalog.go: categories, products
//   - identity.go: users
//   - order.go: orders, order_items
package models

// All returns every model, in dependency order, for AutoMigrate
func All() []any {
	return []any{
		&UserModel{},
		&CategoryModel{},
		&ProductModel{},
		&OrderModel{},
		&OrderItemModel{},
	}
}
