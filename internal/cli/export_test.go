package cli

// LayerValue is an exported alias of [layerValue] for testing.
var LayerValue = layerValue
