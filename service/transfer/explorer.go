package transfer

import "fmt"

// ExplorerTxURL builds an explorer deep link for a transaction signature.
// Non-mainnet clusters are addressed with a cluster query parameter.
func ExplorerTxURL(baseURL, cluster, signature string) string {
	url := fmt.Sprintf("%s/tx/%s", baseURL, signature)
	if cluster != "mainnet" {
		url += "?cluster=" + cluster
	}
	return url
}
