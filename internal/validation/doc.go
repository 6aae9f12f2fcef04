// Samay - Watch Storefront Cart and Favorites Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/samay

/*
Package validation validates decoded API requests with go-playground/validator.

A single validator instance is shared by all handlers; it caches struct
metadata and is safe for concurrent use. Field errors are reported under the
JSON name of the field, so a missing userId reads "userId is required".

Custom tags:

  - productid: the value normalizes to a non-empty product identifier
  - role: user or admin, case-insensitive
  - orderstatus, paymentstatus: members of the order and payment enums

Usage:

	type addToCartRequest struct {
	    UserID    string           `json:"userId"`
	    ProductID models.ProductID `json:"productId" validate:"productid"`
	    Quantity  int              `json:"quantity" validate:"gte=0,lte=99"`
	}

	if verr := validation.ValidateStruct(&req); verr != nil {
	    apiErr := verr.ToAPIError()
	    // 400 with apiErr.Code == "VALIDATION_ERROR"
	}
*/
package validation
