// Package detection turns raw detector output into stable object detections.
//
// A detector network (an Engine) emits one Candidate per anchor: a score per
// label table entry and a box normalized to the network input. Postprocess
// reduces these to Detections in three steps:
//
//  1. Class selection: the highest score wins, ties going to the lowest class
//     index. Candidates whose winning score is below the confidence threshold
//     are dropped.
//  2. Coordinate transform: the normalized center/size box is scaled to the
//     original image, rounded half away from zero and clamped so that every
//     box has a positive width and height and lies inside the image.
//  3. Non-maximum suppression per class: within a class, boxes are visited in
//     descending confidence and any later box whose IoU with a kept box is at
//     or above the NMS threshold is discarded. Boxes of different classes
//     never suppress each other.
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//   - Bounding boxes use inclusive top-left and exclusive bottom-right
//
// # Determinism
//
// Postprocess is a pure function of its inputs. Output is class-major, with
// classes ordered by first appearance among surviving candidates and
// detections within a class in descending confidence. Equal confidences keep
// input order.
package detection
