package domain

// Holding is one identity's balance of an asset's ownership units.
// Position records the order in which holders first appeared on the asset
// and breaks ties when two holders have equal balances.
type Holding struct {
	AssetID  int64
	Holder   string
	Balance  int64
	Position int64
}
