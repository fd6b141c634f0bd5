package catalog

import "github.com/traceshop/backend/internal/shared/types"

// seedProducts is the built-in demo inventory used when no upstream catalog
// is configured. Prices are in cents.
func seedProducts() []types.Product {
	return []types.Product{
		{
			ID:          "prod_mechanical_keyboard",
			Name:        "Mechanical Keyboard",
			Description: "Tenkeyless board with hot-swappable switches",
			PriceCents:  12900,
			Currency:    "USD",
			ImageURL:    "/images/keyboard.jpg",
			Stock:       42,
		},
		{
			ID:          "prod_trackball_mouse",
			Name:        "Trackball Mouse",
			Description: "Wireless thumb trackball, 8 programmable buttons",
			PriceCents:  7400,
			Currency:    "USD",
			ImageURL:    "/images/trackball.jpg",
			Stock:       17,
		},
		{
			ID:          "prod_4k_monitor",
			Name:        "27\" 4K Monitor",
			Description: "IPS panel, USB-C with 90W power delivery",
			PriceCents:  44900,
			Currency:    "USD",
			ImageURL:    "/images/monitor.jpg",
			Stock:       9,
		},
		{
			ID:          "prod_usb_microphone",
			Name:        "USB Condenser Microphone",
			Description: "Cardioid pattern with onboard gain and mute",
			PriceCents:  9900,
			Currency:    "USD",
			ImageURL:    "/images/microphone.jpg",
			Stock:       23,
		},
		{
			ID:          "prod_laptop_stand",
			Name:        "Aluminum Laptop Stand",
			Description: "Adjustable height, folds flat for travel",
			PriceCents:  4500,
			Currency:    "USD",
			ImageURL:    "/images/stand.jpg",
			Stock:       61,
		},
		{
			ID:          "prod_webcam",
			Name:        "1080p Webcam",
			Description: "Autofocus, dual mics, privacy shutter",
			PriceCents:  6900,
			Currency:    "USD",
			ImageURL:    "/images/webcam.jpg",
			Stock:       0,
		},
		{
			ID:          "prod_desk_mat",
			Name:        "Desk Mat",
			Description: "900x400mm stitched-edge mat, water resistant",
			PriceCents:  2400,
			Currency:    "USD",
			ImageURL:    "/images/deskmat.jpg",
			Stock:       120,
		},
		{
			ID:          "prod_noise_cancelling_headphones",
			Name:        "Noise Cancelling Headphones",
			Description: "Over-ear, 30h battery, multipoint Bluetooth",
			PriceCents:  27900,
			Currency:    "USD",
			ImageURL:    "/images/headphones.jpg",
			Stock:       14,
		},
	}
}
