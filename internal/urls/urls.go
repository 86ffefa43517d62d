package urls

// Documentation URLs for guides and troubleshooting
// All URLs point to the documentation site at https://kordwall.github.io/g2link/

// GettingStarted is the quick start guide covering prerequisites,
// installation, and a first connection to the glasses.
const GettingStarted = "https://kordwall.github.io/g2link/getting-started/overview/"

// Pairing covers waking the glasses, why the left arm hosts the link,
// and what to do when the vendor app is holding the connection.
const Pairing = "https://kordwall.github.io/g2link/getting-started/pairing/"

// BridgeProtocol documents the WebSocket JSON protocol the bridge speaks,
// including every method, error code, and event payload.
const BridgeProtocol = "https://kordwall.github.io/g2link/bridge/protocol/"

// CaptureAnalysis is the guide for recording btsnoop captures on Android
// and feeding them to the analysis tools.
const CaptureAnalysis = "https://kordwall.github.io/g2link/reverse-engineering/captures/"

// FrameFormat documents the recovered frame layout, the service id table,
// and the payload field encoding.
const FrameFormat = "https://kordwall.github.io/g2link/reverse-engineering/frame-format/"

// TroubleshootingGuide provides solutions to common issues with BLE
// adapters, discovery, and the glasses dropping the link.
const TroubleshootingGuide = "https://kordwall.github.io/g2link/troubleshooting/"
