// Package shopify provides types, interfaces, and helpers for uploading media
// to a store through the Admin API.
//
// # Overview
//
// The shopify package defines the domain types (UploadTarget, Asset,
// Metafield, ProductImage) and the interfaces of the resource clients
// (StagedUploadsClient, FilesClient, MetafieldsClient, ProductImagesClient).
// A concrete implementation is provided by the shopifyclient package, which
// wires configuration, transport, caching and metrics.
//
// Getting a client
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/arassai75/ShopifyLib-sub000/pkg/shopify"
//	  "github.com/arassai75/ShopifyLib-sub000/pkg/shopifyclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//	  cli, err := shopifyclient.New(ctx, &shopify.Config{
//	    ShopDomain:  "my-store",
//	    AccessToken: "shpat_...",
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  res, err := cli.Uploader().UploadOne(ctx,
//	    shopify.UploadSource{URL: "https://cdn.example.com/shoe.jpg"},
//	    shopify.UploadMetadata{Alt: "Red shoe"})
//	  if err != nil { log.Fatal(err) }
//	  _ = res.URL
//	}
//
// # Upload pipeline
//
// A staged upload negotiates a single-use storage target, sends the bytes as
// a multipart form with the server's parameters in order, registers the
// resulting resource URL with fileCreate and polls until a CDN URL appears.
// A reference upload skips the first two steps and lets the platform fetch a
// public URL. The Uploader chooses between them and falls back from
// reference to staged when the origin cannot be fetched.
//
// # Errors
//
// Each step fails with its own type: NegotiationRejectedError,
// TransportError, FinalizationRejectedError, DownloadError,
// MetadataWriteError and AssetFailedError. StepOf returns the step of any of
// them. A poll that runs out of time is not an error; the result is marked
// PollTimedOut and the asset stays usable by ID.
//
// # Interceptors and caching
//
// Admin API calls pass through an interceptor chain (logging, headers, rate
// limiting, Prometheus metrics). CDN URLs of finished assets are remembered
// in a Cache: an in-process LRU, a NATS JetStream key/value bucket, or both.
package shopify
