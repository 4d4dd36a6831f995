// Package shopifyclient creates Admin API clients.
//
// New accepts the shop as a bare handle, a host or a URL and normalizes it
// before building the client:
//
//	cli, err := shopifyclient.NewWithToken(ctx, "my-store", os.Getenv("SHOPIFY_ACCESS_TOKEN"))
//	if err != nil {
//		return err
//	}
//	defer cli.Close()
//
//	res, err := cli.Uploader().UploadOne(ctx,
//		shopify.UploadSource{Data: data, Filename: "shoe.jpg"},
//		shopify.UploadMetadata{Alt: "Red shoe"})
package shopifyclient
