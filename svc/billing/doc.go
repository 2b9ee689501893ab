// Package billing reconciles tenant add-ons with the payment subscription.
//
// ApplyAddons talks to the Gateway before writing anything locally. If the
// provider rejects the change the tenant keeps its previous add-ons and no
// activity is recorded. If the provider accepted it but the local write
// fails, the mismatch is logged with reconcile=manual and left for an
// operator; it is not retried.
//
// PaddleGateway is the production Gateway. Add-on items are created as
// custom monthly prices tagged with addon_key in their custom data so they
// can be told apart from the base plan items on the next update.
package billing
