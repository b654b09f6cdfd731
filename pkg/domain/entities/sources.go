package entities

// Source names of the extracts a report run knows about
const (
	SourceUnfulfilledOrders = "unfulfilled_orders"
	SourceFinishedProducts  = "finished_products" // finished-goods WIP
	SourceCPWIP             = "cp_wip"
	SourceFinishedInventory = "finished_inventory"
	SourceWaferInventory    = "wafer_inventory"
	SourceForecast          = "forecast"
	SourceSafetyStock       = "safety_stock"
	SourceMapping           = "mapping"
)

// IdentityColumns are the key columns of the summary table
var IdentityColumns = FieldMap{Wafer: "晶圆品名", Spec: "规格", Part: "品名"}
