// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer free of ORM
// concerns.
//
// Each model carries the gorm tags and table name, plus ToDomain/FromDomain mappers.
// JSON-valued columns (site features, goods visibility, webhook headers) use gorm's
// json serializer so the same models run on postgres and on sqlite.
//
// Files:
//   - base.go: BaseModel, AggregateModel, SiteAggregateModel
//   - site.go: sites, site_themes, site_configs, site_slides
//   - catalog.go: goods_categories, goods, goods_images
//   - shopping.go: carts, cart_items, wishlists, wishlist_items
//   - order.go: orders, order_items, order_logs, refund_details
//   - payment.go: payments, the four detail tables, webhook_logs
//   - identity.go: users
package models
