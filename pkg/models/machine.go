package models

// MachineDefinition describes the hardware shape of a single executor host.
type MachineDefinition struct {
	CPUCores    float64 `json:"cpu_cores"`
	MemoryMB    float64 `json:"memory_mb"`
	NetworkMbps float64 `json:"network_mbps"`
	DiskMB      float64 `json:"disk_mb"`
	NumPorts    int     `json:"num_ports"`
}

// SkuDefinition binds a machine definition to the SKU it is sold under.
// SKU ids are opaque strings, unique within a cluster.
type SkuDefinition struct {
	SkuID   string            `json:"sku_id"`
	Machine MachineDefinition `json:"machine"`
}
