// Package truenas provides typed calls for the storage appliance middleware
// on top of an rpc.Engine.
//
// Authentication is an ordinary call: auth.login with a username and
// password, or auth.login_with_api_key with an API key. The middleware
// answers true on success.
//
//	c, err := truenas.Dial(ctx, rpc.Config{Address: "nas.local"}, truenas.Credentials{APIKey: key})
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
//
//	pools, err := c.PoolNames(ctx)
package truenas
