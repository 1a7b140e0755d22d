package client

// Services bundles the adapters sharing one Client.
type Services struct {
	Catalog    *CatalogClient
	Governance *GovernanceClient
	Discovery  *DiscoveryClient
	Connection *ConnectionClient
}

// NewServices creates every service adapter on top of c.
func NewServices(c *Client) *Services {
	return &Services{
		Catalog:    NewCatalogClient(c),
		Governance: NewGovernanceClient(c),
		Discovery:  NewDiscoveryClient(c),
		Connection: NewConnectionClient(c),
	}
}
