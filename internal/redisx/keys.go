package redisx

import "time"

const (
	// Session cart: cart:{session_id} -> JSON []cart.Item
	KeyCart = "cart:%s"

	// Cached product list from the backend: catalog:products:all
	KeyProductList = "catalog:products:all"

	// Cached single product: catalog:product:{id}
	KeyProduct = "catalog:product:%s"

	// Pincode lookup: pincode:{pin} -> {"city": "...", "state": "..."}
	KeyPincode = "pincode:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLCart        = 7 * 24 * time.Hour
	TTLProductList = 5 * time.Minute
	TTLPincode     = 30 * 24 * time.Hour
	TTLDedup       = 48 * time.Hour
)
